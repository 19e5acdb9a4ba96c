package metascan

import (
	"github.com/jward/metascan/internal/meta"
	"github.com/jward/metascan/internal/scanner"
	"github.com/jward/metascan/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// APIs.

type Store = store.Store
type Unit = meta.Unit
type Member = meta.Member
type Param = meta.Param
type Reader = meta.Reader
type Scanner = scanner.Scanner
