package wire

// putStr writes s into a fixed-size, NUL-padded field and appends it to dst.
// Producers translate display strings per the negotiated protocol version
// before calling this (see Builder in builder.go); putStr itself only
// truncates and pads — it does not know about ISO-8859-1 vs UTF-8.
func putStr(dst []byte, s string, size int) []byte {
	buf := make([]byte, size)
	n := copy(buf, s)
	_ = n
	return append(dst, buf...)
}

// getStr reads a fixed-size NUL-padded field and returns the string up
// to the first NUL byte, or the whole field if unterminated.
func getStr(body []byte, size int) string {
	if len(body) < size {
		size = len(body)
	}
	field := body[:size]
	for i, b := range field {
		if b == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}

func needBody(body []byte, size int) error {
	if len(body) < size {
		return ErrMalformed
	}
	return nil
}
