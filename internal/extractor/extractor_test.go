package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/williamfzc/gossiphs/internal/rules"
	"github.com/williamfzc/gossiphs/internal/types"
)

func newCounter() func() types.SiteID {
	var n types.SiteID
	return func() types.SiteID {
		id := n
		n++
		return id
	}
}

func ruleFor(t *testing.T, ext string) *rules.Rule {
	t.Helper()
	rule, ok := rules.Default().RuleForExtension(ext)
	require.True(t, ok)
	return rule
}

func TestExtractGoFileProducesImportDefAndRefSites(t *testing.T) {
	src := []byte(`package main

import "fmt"

func greet() {
	fmt.Println("hi")
}

func main() {
	greet()
}
`)
	sites, err := Extract(ruleFor(t, ".go"), types.FileID(0), src, newCounter())
	require.NoError(t, err)

	var imports, defs, refs []types.Site
	for _, s := range sites {
		switch s.Kind {
		case types.SiteKindImport:
			imports = append(imports, s)
		case types.SiteKindDef:
			defs = append(defs, s)
		case types.SiteKindRef:
			refs = append(refs, s)
		}
	}

	require.Len(t, imports, 1)
	require.Contains(t, imports[0].Name, "fmt")

	defNames := make([]string, len(defs))
	for i, d := range defs {
		defNames[i] = d.Name
	}
	require.ElementsMatch(t, []string{"greet", "main"}, defNames)

	var sawGreetCall, sawQualifiedPrintln bool
	for _, r := range refs {
		if r.Name == "greet" && !r.Qualified {
			sawGreetCall = true
		}
		if r.Name == "Println" && r.Qualified {
			sawQualifiedPrintln = true
		}
	}
	require.True(t, sawGreetCall, "expected an unqualified ref to greet")
	require.True(t, sawQualifiedPrintln, "expected a qualified ref to Println")

	for _, s := range sites {
		require.Equal(t, types.FileID(0), s.File)
	}
}

func TestExtractAssignsMonotonicSiteIDsInSourceOrder(t *testing.T) {
	src := []byte(`package main

func a() {}
func b() { a() }
`)
	sites, err := Extract(ruleFor(t, ".go"), types.FileID(7), src, newCounter())
	require.NoError(t, err)
	require.NotEmpty(t, sites)

	for i := 1; i < len(sites); i++ {
		require.Less(t, sites[i-1].Span.Start, sites[i].Span.Start, "sites must be ordered by source position")
		require.Equal(t, sites[i-1].ID+1, sites[i].ID, "site ids must be assigned monotonically")
	}
}

func TestExtractOnEmptyFileYieldsNoSites(t *testing.T) {
	sites, err := Extract(ruleFor(t, ".go"), types.FileID(0), []byte(""), newCounter())
	require.NoError(t, err)
	require.Empty(t, sites)
}

func TestExtractDedupesOverlappingCapturesByPriority(t *testing.T) {
	// A selector expression used as a bare statement, e.g. a method
	// value reference, is captured both by the selector_expression
	// rule and (when called) the call_expression rule; same span
	// collisions must keep exactly one site, never double count.
	src := []byte(`package main

type T struct{}

func (t T) M() {}

func use(t T) {
	t.M()
}
`)
	sites, err := Extract(ruleFor(t, ".go"), types.FileID(0), src, newCounter())
	require.NoError(t, err)

	spans := make(map[[2]uint32]int)
	for _, s := range sites {
		spans[[2]uint32{s.Span.Start, s.Span.End}]++
	}
	for span, count := range spans {
		require.Equal(t, 1, count, "span %v should produce exactly one site", span)
	}
}
