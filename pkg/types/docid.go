package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DocumentID is a Git-style SHA-1 content hash (20 bytes) identifying a
// document independently of where it was found.
type DocumentID [20]byte

// ComputeDocumentID computes SHA-1("blob {len}\0{content}"), the same value
// `git hash-object` reports for the content.
func ComputeDocumentID(content []byte) DocumentID {
	header := fmt.Sprintf("blob %d\x00", len(content))
	h := sha1.New()
	h.Write([]byte(header))
	h.Write(content)

	var id DocumentID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns the 40-character hex form.
func (id DocumentID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id DocumentID) String() string {
	return id.Hex()
}

// ParseDocumentID parses the 40-character hex form.
func ParseDocumentID(hexStr string) (DocumentID, error) {
	if len(hexStr) != 40 {
		return DocumentID{}, fmt.Errorf("invalid document ID length: expected 40, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return DocumentID{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var id DocumentID
	copy(id[:], decoded)
	return id, nil
}

// MarshalJSON encodes the ID as a hex string.
func (id DocumentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON decodes a hex string.
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseDocumentID(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer.
func (id DocumentID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner.
func (id *DocumentID) Scan(value interface{}) error {
	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	case nil:
		return fmt.Errorf("cannot scan nil into DocumentID")
	default:
		return fmt.Errorf("cannot scan type %T into DocumentID", value)
	}

	parsed, err := ParseDocumentID(hexStr)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
