package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// networkRecord bentuk road network yang disimpan di pebble. slice per kolom supaya encoding kelindar/binary compact.
type networkRecord struct {
	NodeIDs []int64
	Lats    []float64
	Lons    []float64
	From    []int32
	To      []int32
	Weights []float64
}

type distancesRecord struct {
	Distances []float64
}

func encode(v interface{}) ([]byte, error) {
	return binary.Marshal(v)
}

func decode(bb []byte, v interface{}) error {
	return binary.Unmarshal(bb, v)
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}
	return bb, nil
}

func encodeCompressed(v interface{}) ([]byte, error) {
	bb, err := encode(v)
	if err != nil {
		return nil, err
	}
	return Compress(bb)
}

func decodeCompressed(bbCompressed []byte, v interface{}) error {
	bb, err := Decompress(bbCompressed)
	if err != nil {
		return err
	}
	return decode(bb, v)
}
