package index

import (
	"bytes"
	"encoding/binary"
)

// key = invTime(8) + seq(4) + 0x00 + permalink
// 时间取反后 bbolt 的正向游标就是时间降序；seq 是 catalog 里的位置，
// 同一时刻的两篇按它保持稳定顺序。
func makeDateKey(unixNano int64, seq uint32, permalink string) []byte {
	invTime := ^uint64(unixNano)

	buf := make([]byte, 0, 8+4+1+len(permalink))

	tmp8 := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp8, invTime)
	buf = append(buf, tmp8...)

	tmp4 := make([]byte, 4)
	binary.BigEndian.PutUint32(tmp4, seq)
	buf = append(buf, tmp4...)

	buf = append(buf, 0x00)
	buf = append(buf, []byte(permalink)...)
	return buf
}

func permalinkFromDateKey(k []byte) string {
	if len(k) < 8+4+2 {
		return ""
	}
	i := bytes.IndexByte(k[12:], 0x00)
	if i < 0 {
		return ""
	}
	pos := 12 + i
	if pos+1 >= len(k) {
		return ""
	}
	return string(k[pos+1:])
}
