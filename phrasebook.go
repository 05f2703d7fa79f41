// Package phrasebook translates short phrases through a remote translation
// provider and remembers every successful translation for the lifetime of
// the process.
//
// A Translator consults its PhraseCache first and only calls the provider on
// a miss. Provider failures are normalized into a small set of error types:
// MissingCredentialError, TransportError, DecodeError and EmptyResultError.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/phrasebook"
//	    "github.com/ZaguanLabs/phrasebook/cache"
//	    "github.com/ZaguanLabs/phrasebook/provider"
//	)
//
//	func main() {
//	    p, err := provider.NewDeepLProvider(provider.DeepLConfig{
//	        AuthKey: os.Getenv("DEEPL_AUTH_KEY"),
//	    })
//	    if err != nil {
//	        log.Fatal(err) // missing credential
//	    }
//
//	    t := phrasebook.NewTranslator("JA", p,
//	        phrasebook.WithSourceLang("EN"),
//	        phrasebook.WithCache(cache.NewInMemoryCache()),
//	    )
//
//	    ja, err := t.Translate(context.Background(), "Hello")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(ja) // こんにちは
//	}
package phrasebook
