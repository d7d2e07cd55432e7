package tcp

// crc16IBM computes CRC-16/IBM (reflected polynomial 0xA001, zero init), the
// checksum Teltonika devices append to every AVL packet.
func crc16IBM(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
