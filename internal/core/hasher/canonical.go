package hasher

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gustavorteuber/fortune-tiger-tdd/internal/core/domain"
)

// encodingTag prefixes every canonical block encoding. Bump it together
// with the codec version if the layout below ever changes.
const encodingTag = "fortune-tiger/block/v1"

// Canonical returns the frozen byte encoding of a block's hashed fields.
//
// Layout (every field written as a netstring "<len>:<bytes>,"):
//
//	tag NUL
//	index previousHash txCount
//	per transaction: betAmount resultLen symbol... winnings timestamp
//
// Decimals use decimal.String (no trailing zeros, no exponent), integers
// are base 10 and timestamps are UTC RFC 3339 with nanoseconds.
func Canonical(index uint64, previousHash string, txs []domain.Transaction) []byte {
	var buf bytes.Buffer
	buf.WriteString(encodingTag)
	buf.WriteByte(0)

	writeField(&buf, strconv.FormatUint(index, 10))
	writeField(&buf, previousHash)
	writeField(&buf, strconv.Itoa(len(txs)))

	for _, tx := range txs {
		writeField(&buf, tx.BetAmount.String())
		writeField(&buf, strconv.Itoa(len(tx.Result)))
		for _, s := range tx.Result {
			writeField(&buf, string(s))
		}
		writeField(&buf, tx.Winnings.String())
		writeField(&buf, tx.Timestamp.UTC().Format(time.RFC3339Nano))
	}

	return buf.Bytes()
}

func writeField(buf *bytes.Buffer, s string) {
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteByte(':')
	buf.WriteString(s)
	buf.WriteByte(',')
}
