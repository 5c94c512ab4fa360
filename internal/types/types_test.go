package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteKindPriorityOrder(t *testing.T) {
	require.Greater(t, SiteKindImport.Priority(), SiteKindDef.Priority())
	require.Greater(t, SiteKindDef.Priority(), SiteKindRef.Priority())
}

func TestSiteKindString(t *testing.T) {
	require.Equal(t, "DEF", SiteKindDef.String())
	require.Equal(t, "REF", SiteKindRef.String())
	require.Equal(t, "IMPORT", SiteKindImport.String())
	require.Equal(t, "UNKNOWN", SiteKind(99).String())
}

func TestSiteString(t *testing.T) {
	s := Site{Name: "Foo", File: 3, Span: Span{Start: 10, End: 13}, Kind: SiteKindDef}
	require.Equal(t, "Foo@3[10:13]=DEF", s.String())
}
