package index

import (
	"sync"

	"github.com/restflow/restflow/internal/rag/parser/markdown"
	"github.com/restflow/restflow/internal/rag/parser/text"
)

var registerParsersOnce sync.Once

func ensureDefaultParsers() {
	registerParsersOnce.Do(func() {
		markdown.Register()
		text.Register()
	})
}
