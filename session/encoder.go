package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const recordFormatVersionCurrent = 1

// Encode serializes a record into the versioned binary blob stored in
// Redis. Short string fields are length-prefixed with one byte; the
// user-agent gets two because real agent strings exceed 255 bytes.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := writeShortString(&buf, r.AccountID, "accountID"); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.RefreshSecret, "refreshSecret"); err != nil {
		return nil, err
	}
	if err := writeShortString(&buf, r.IP, "ip"); err != nil {
		return nil, err
	}

	if len(r.UserAgent) > 65535 {
		return nil, errors.New("userAgent too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.UserAgent))); err != nil {
		return nil, err
	}
	buf.WriteString(r.UserAgent)

	if r.Valid {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a stored blob back into a record. Unknown versions and
// truncated blobs fail; callers map that to a corrupt-record error.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}

	if r.AccountID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if r.RefreshSecret, err = readShortString(reader); err != nil {
		return nil, err
	}
	if r.IP, err = readShortString(reader); err != nil {
		return nil, err
	}

	var uaLen uint16
	if err := binary.Read(reader, binary.BigEndian, &uaLen); err != nil {
		return nil, err
	}
	ua := make([]byte, uaLen)
	if _, err := io.ReadFull(reader, ua); err != nil {
		return nil, err
	}
	r.UserAgent = string(ua)

	validByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Valid = validByte == 1

	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}

	return r, nil
}

func writeShortString(buf *bytes.Buffer, s, field string) error {
	if len(s) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
