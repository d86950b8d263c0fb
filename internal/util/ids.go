package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idLength   = 21
	idAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewID returns a random URL-safe identifier for jobs and generated edges.
func NewID() (string, error) {
	return gonanoid.New()
}

// NewPrefixedID returns prefix + "_" + a fresh identifier, e.g. "job_V1StGXR8_Z5jdHi6B-myT".
func NewPrefixedID(prefix string) (string, error) {
	id, err := gonanoid.Generate(idAlphabet, idLength)
	if err != nil {
		return "", err
	}
	if prefix == "" {
		return id, nil
	}
	return prefix + "_" + id, nil
}
