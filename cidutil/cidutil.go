// Package cidutil derives content identifiers for canonical license payloads.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ContentID returns the CIDv1 (raw multicodec, sha2-256 multihash) of data
// as a base32 string.
func ContentID(data []byte) (string, error) {
	c, err := ContentCID(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// ContentCID returns the CIDv1 (raw + sha2-256) derived from data.
func ContentCID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Matches reports whether id is the content identifier of data. Any CID
// encoding of the same multihash is accepted.
func Matches(id string, data []byte) bool {
	want, err := cid.Decode(id)
	if err != nil {
		return false
	}
	got, err := ContentCID(data)
	if err != nil {
		return false
	}
	return want.Equals(got)
}
