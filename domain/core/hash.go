package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ModelFingerprint is the deterministic fingerprint of a validated model.
type ModelFingerprint Hash

func (h ModelFingerprint) String() string { return Hash(h).String() }

// ComputeModelFingerprint hashes a model's structural identity: id, version,
// sorted variable ids, sorted (source,target) edge pairs, and sorted equation
// targets. Two structurally identical models fingerprint identically
// regardless of map iteration order.
func ComputeModelFingerprint(modelID, version string, variableIDs []string, edgePairs [][2]string, equationTargets []string) ModelFingerprint {
	vars := append([]string(nil), variableIDs...)
	sort.Strings(vars)

	pairs := make([]string, 0, len(edgePairs))
	for _, p := range edgePairs {
		pairs = append(pairs, p[0]+"->"+p[1])
	}
	sort.Strings(pairs)

	targets := append([]string(nil), equationTargets...)
	sort.Strings(targets)

	var data strings.Builder
	data.WriteString(modelID)
	data.WriteString("|")
	data.WriteString(version)
	for _, v := range vars {
		data.WriteString("|v:")
		data.WriteString(v)
	}
	for _, p := range pairs {
		data.WriteString("|e:")
		data.WriteString(p)
	}
	for _, t := range targets {
		data.WriteString("|q:")
		data.WriteString(t)
	}

	return ModelFingerprint(NewHash([]byte(data.String())))
}

// ComputeStreamSeed derives a deterministic sub-seed for a named RNG stream
// from a base seed. Used so parallel Monte Carlo workers and serial runs
// draw identical noise for the same (seed, stream) pair.
func ComputeStreamSeed(baseSeed int64, parts ...string) uint64 {
	var data strings.Builder
	data.WriteString(fmt.Sprintf("%d", baseSeed))
	for _, p := range parts {
		data.WriteString("|")
		data.WriteString(p)
	}
	sum := sha256.Sum256([]byte(data.String()))
	var seed uint64
	for i := 0; i < 8; i++ {
		seed = seed<<8 | uint64(sum[i])
	}
	return seed
}
