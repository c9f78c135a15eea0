package expander

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/futig/report-grounder/internal/entity"
	"github.com/futig/report-grounder/internal/pipeline/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passageSource = "merkezimizde yürütülen araştırma projeleri kapsamında elektrikli araç batarya " +
	"yönetim sistemleri için yeni bir algoritma geliştirilmiş ve bu algoritma üç farklı pilot " +
	"uygulamada doğrulanmıştır; elde edilen sonuçlar ulusal ve uluslararası dergilerde yayımlanmış, " +
	"ayrıca iki adet patent başvurusu yapılmıştır ve çalışmalar sürmektedir"

// fillerTokens returns "kelimeNNN " tokens; every 20-rune window over them is unique.
func fillerTokens(from, to int) string {
	var b strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&b, "kelime%03d ", i)
	}
	return b.String()
}

// fuzzyDocument places a 250-rune passage at rune offset 430.
func fuzzyDocument(t *testing.T) (doc string, passage []rune) {
	t.Helper()
	passage = []rune(passageSource)[:250]
	doc = fillerTokens(1, 43) + string(passage) + " " + strings.TrimSpace(fillerTokens(44, 83))
	require.Equal(t, 430, len([]rune(fillerTokens(1, 43))))
	return doc, passage
}

func TestExpandSnippet_ExactMatch(t *testing.T) {
	doc := "Birinci paragraf burada.\nİkinci   paragraf hedef cümleyi içerir. Üçüncü paragraf sonda."
	got := ExpandSnippet("hedef cümleyi içerir.", doc, 10)
	assert.Contains(t, got, "hedef cümleyi içerir.")
	assert.Contains(t, got, "paragraf")
	assert.NotContains(t, got, "  ")
	assert.NotContains(t, got, "\n")
}

func TestExpandSnippet_ClampsToDocument(t *testing.T) {
	doc := "kısa belge metni"
	assert.Equal(t, "kısa belge metni", ExpandSnippet("belge", doc, 500))
}

func TestExpandSnippet_FuzzyMatch(t *testing.T) {
	doc, passage := fuzzyDocument(t)

	altered := append([]rune(nil), passage...)
	altered[50] = 'x'
	altered[180] = 'x'
	chunk := string(altered)
	require.NotContains(t, doc, chunk)

	got := ExpandSnippet(chunk, doc, 60)

	raw := []rune(doc)
	assert.Equal(t, clean(string(raw[400-60:400+250+60])), got)
	assert.Contains(t, got, "kelime041")
	assert.Contains(t, got, string(passage[:40]))
}

// alterEvery replaces every n-th rune of passage, starting at rune 5, with 'x'.
func alterEvery(passage []rune, n int) string {
	altered := append([]rune(nil), passage...)
	for i := 5; i < len(altered); i += n {
		altered[i] = 'x'
	}
	return string(altered)
}

func TestExpandSnippet_FuzzyNearThreshold(t *testing.T) {
	doc, _ := fuzzyDocument(t)
	norm, _ := normalizeWithOffsets(doc)

	similar := alterEvery([]rune(passageSource)[:250], 10)
	idx, ratio := fuzzyLocate(norm, []rune(normalize(similar)))
	require.Equal(t, 400, idx)
	require.Greater(t, ratio, fuzzyThreshold)
	require.Less(t, ratio, 0.9)

	raw := []rune(doc)
	assert.Equal(t, clean(string(raw[400-60:400+250+60])), ExpandSnippet(similar, doc, 60))

	distant := alterEvery([]rune(passageSource)[:250], 3)
	_, ratio = fuzzyLocate(norm, []rune(normalize(distant)))
	require.Less(t, ratio, fuzzyThreshold)
	assert.Equal(t, clean(distant), ExpandSnippet(distant, doc, 60))
}

func TestExpandSnippet_RepeatedPrefix(t *testing.T) {
	const heading = "Ar-Ge merkezi faaliyet raporu"
	chunk := heading + " 2023 yılında yürütülen projelerin sonuçları özetlenmiştir."
	doc := heading + " giriş bölümü burada yer alır. " + fillerTokens(1, 190) +
		chunk + " " + strings.TrimSpace(fillerTokens(191, 230))

	got := ExpandSnippet(chunk, doc, 300)

	assert.Contains(t, normalize(got), normalize(chunk))
	assert.NotContains(t, got, "giriş bölümü")
	assert.Contains(t, got, "kelime190")
}

func TestExpandSnippet_FuzzyBelowThreshold(t *testing.T) {
	doc, _ := fuzzyDocument(t)
	chunk := strings.Repeat("qwz vyq ", 32)

	assert.Equal(t, clean(chunk), ExpandSnippet(chunk, doc, 60))
}

func TestExpandSnippet_EmptyChunk(t *testing.T) {
	assert.Equal(t, "", ExpandSnippet("  \n", "belge", 10))
}

func TestExpandSnippet_AnchorAcrossLineBreak(t *testing.T) {
	doc := strings.Repeat("giriş ", 30) + "hedef\nsatır burada devam ediyor ve bitiyor" + strings.Repeat(" son", 30)
	got := ExpandSnippet("hedef satır burada devam ediyor", doc, 5)
	assert.Contains(t, got, "hedef satır burada devam ediyor")
}

func TestNormalizeCleanRoundTrip(t *testing.T) {
	inputs := []string{
		"  Ar-Ge   Merkezi\n\tFAALİYET raporu  ",
		"İSTANBUL ve ÇORUM",
		"",
		"tek",
	}
	for _, in := range inputs {
		n := normalize(in)
		assert.Equal(t, n, normalize(n), "normalize is idempotent for %q", in)
		assert.Equal(t, clean(in), clean(clean(in)))
		assert.Equal(t, len([]rune(clean(in))), len([]rune(n)), "normalize keeps rune count of clean for %q", in)
	}
}

func TestExpandQuestion(t *testing.T) {
	layout, err := workspace.New(t.TempDir(), "rapor2023")
	require.NoError(t, err)
	require.NoError(t, layout.Init())

	doc := strings.Repeat("önceki bağlam ", 10) + "Kritik bulgu burada yer alır." + strings.Repeat(" sonraki bağlam", 10)
	require.NoError(t, os.WriteFile(layout.CleanTextFile("rapor2023.txt"), []byte(doc), 0o644))

	hits := []entity.RetrievalHit{
		{Rank: 1, Index: 4, ChunkText: "Kritik bulgu burada yer alır.", SourceFile: "rapor2023.txt"},
		{Rank: 2, Index: 7, ChunkText: "Kaynaksız\nparça metni", SourceFile: "yok.txt"},
	}
	require.NoError(t, workspace.WriteJSON(layout.TopKFile(entity.CategoryOzel, 3, 10), hits))

	out, err := New(layout).ExpandQuestion(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)

	ozel := out[entity.CategoryOzel]
	require.Len(t, ozel, 2)
	assert.Equal(t, 1, ozel[0].Rank)
	assert.Equal(t, 4, ozel[0].Index)
	assert.Contains(t, ozel[0].ExpandedText, "önceki bağlam Kritik bulgu burada yer alır. sonraki bağlam")
	assert.Equal(t, "Kaynaksız parça metni", ozel[1].ExpandedText)

	var persisted []entity.ExpandedHit
	require.NoError(t, workspace.ReadJSON(layout.ExpandedFile(entity.CategoryOzel, 3, 10), &persisted))
	assert.Equal(t, ozel, persisted)
}

func TestExpandAll(t *testing.T) {
	layout, err := workspace.New(t.TempDir(), "r")
	require.NoError(t, err)
	require.NoError(t, layout.Init())

	hits := []entity.RetrievalHit{{Rank: 1, ChunkText: "metin", SourceFile: "r.txt"}}
	require.NoError(t, workspace.WriteJSON(layout.TopKFile(entity.CategoryGenel, 1, 10), hits))
	require.NoError(t, workspace.WriteJSON(layout.TopKFile(entity.CategoryMevzuat, 2, 10), hits))

	n, err := New(layout).ExpandAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(layout.ExpandedFile(entity.CategoryMevzuat, 2, 10))
	assert.NoError(t, err)
}
