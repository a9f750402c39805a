package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// receiptAlphabet drops 0/O and 1/I so numbers survive being read aloud at the till.
const receiptAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateReceiptNumber returns RCPT-YYYYMMDD-HHMMSS-XXXXXX, stamped in UTC.
func GenerateReceiptNumber(t time.Time) string {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		binary.BigEndian.PutUint64(seed[:], uint64(t.UnixNano()))
	}
	v := binary.BigEndian.Uint64(seed[:])

	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = receiptAlphabet[v%uint64(len(receiptAlphabet))]
		v /= uint64(len(receiptAlphabet))
	}

	return fmt.Sprintf("RCPT-%s-%s", t.UTC().Format("20060102-150405"), suffix)
}
