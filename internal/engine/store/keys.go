package store

import "encoding/binary"

// key = prefix(2) + client(2) + tx(4), big endian so one client's keys are contiguous
const (
	prefixDeposit    = "d:"
	prefixWithdrawal = "w:"
)

func makeKey(prefix string, client uint16, tx uint32) []byte {
	k := make([]byte, 0, len(prefix)+2+4)
	k = append(k, prefix...)
	k = binary.BigEndian.AppendUint16(k, client)
	k = binary.BigEndian.AppendUint32(k, tx)
	return k
}

func KeyDeposit(client uint16, tx uint32) []byte { return makeKey(prefixDeposit, client, tx) }

func KeyWithdrawal(client uint16, tx uint32) []byte { return makeKey(prefixWithdrawal, client, tx) }
