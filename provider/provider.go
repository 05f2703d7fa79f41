// Package provider implements remote translation backends.
package provider

import "github.com/ZaguanLabs/phrasebook"

// Provider is an alias to the main package interface for convenience.
type Provider = phrasebook.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = phrasebook.TranslateRequest

// Candidate is an alias to the main package type.
type Candidate = phrasebook.Candidate

// maxBodySnippet bounds the response body kept on a DecodeError.
const maxBodySnippet = 512

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet]) + "..."
	}
	return string(body)
}
