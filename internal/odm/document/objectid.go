package document

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// ObjectID is a 12-byte structured identifier: 4 bytes of unix seconds,
// 5 bytes of process randomness, and a 3-byte monotonic counter. Its hex
// form is always 24 characters.
type ObjectID [12]byte

// NilObjectID is the zero ObjectID.
var NilObjectID ObjectID

var (
	processUnique = newProcessUnique()
	objectIDCount = newObjectIDCounter()
)

func newProcessUnique() [5]byte {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("document: cannot seed objectid process bytes: %v", err))
	}
	return b
}

func newObjectIDCounter() *atomic.Uint32 {
	var b [4]byte
	if _, err := rand.Read(b[1:]); err != nil {
		panic(fmt.Sprintf("document: cannot seed objectid counter: %v", err))
	}
	c := &atomic.Uint32{}
	c.Store(binary.BigEndian.Uint32(b[:]))
	return c
}

// NewObjectID generates a new unique ObjectID.
func NewObjectID() ObjectID {
	return newObjectIDAt(time.Now())
}

func newObjectIDAt(t time.Time) ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(t.Unix()))
	copy(id[4:9], processUnique[:])
	n := objectIDCount.Add(1)
	id[9] = byte(n >> 16)
	id[10] = byte(n >> 8)
	id[11] = byte(n)
	return id
}

// ObjectIDFromHex parses a 24-character hex string into an ObjectID.
func ObjectIDFromHex(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 24 {
		return id, fmt.Errorf("document: invalid objectid hex length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("document: invalid objectid hex: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// Hex returns the 24-character lowercase hex form of the id.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id ObjectID) String() string {
	return id.Hex()
}

// IsZero returns true for the nil ObjectID.
func (id ObjectID) IsZero() bool {
	return id == NilObjectID
}

// Timestamp returns the creation time embedded in the id, at second
// precision.
func (id ObjectID) Timestamp() time.Time {
	return time.Unix(int64(binary.BigEndian.Uint32(id[0:4])), 0).UTC()
}

// IsHexObjectID reports whether s is lexically a valid ObjectID: exactly
// 24 hex characters. Identity lookups use this to decide whether a string
// key should be tried as a structured id first.
func IsHexObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
