package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "basic sentences",
			in:   "Şirket 2015 yılında kuruldu. Merkez İstanbul'dadır! Çalışan sayısı artıyor mu? Evet, artıyor.",
			want: []string{
				"Şirket 2015 yılında kuruldu.",
				"Merkez İstanbul'dadır!",
				"Çalışan sayısı artıyor mu?",
				"Evet, artıyor.",
			},
		},
		{
			name: "newlines collapse into spaces",
			in:   "Proje ekibi genişletildi.\nYeni laboratuvar açıldı.",
			want: []string{"Proje ekibi genişletildi.", "Yeni laboratuvar açıldı."},
		},
		{
			name: "decimal numbers do not split",
			in:   "Bütçe 3.5 milyon TL olarak gerçekleşti. Artış oranı 12.75 yüzde.",
			want: []string{"Bütçe 3.5 milyon TL olarak gerçekleşti.", "Artış oranı 12.75 yüzde."},
		},
		{
			name: "short abbreviations do not split",
			in:   "Toplantıya Dr. Ayşe Yılmaz katıldı. Konu Ar-Ge vb. Faaliyetlerdi.",
			want: []string{"Toplantıya Dr. Ayşe Yılmaz katıldı.", "Konu Ar-Ge vb. Faaliyetlerdi."},
		},
		{
			name: "lowercase after period does not split",
			in:   "Bu bir deneme cümlesidir. ve devam ediyor burada.",
			want: []string{"Bu bir deneme cümlesidir. ve devam ediyor burada."},
		},
		{
			name: "short noise dropped",
			in:   "Tamamlandı. Kısaca! Bu cümle yeterince uzundur.",
			want: []string{"Tamamlandı.", "Bu cümle yeterince uzundur."},
		},
		{
			name: "four letter word before period is treated as abbreviation",
			in:   "Sonuç oldu. Ardından rapor yazıldı.",
			want: []string{"Sonuç oldu. Ardından rapor yazıldı."},
		},
		{
			name: "final fragment without terminator kept",
			in:   "İlk cümle burada bitiyor. Sonuncusu noktasız kalıyor",
			want: []string{"İlk cümle burada bitiyor.", "Sonuncusu noktasız kalıyor"},
		},
		{
			name: "empty text",
			in:   "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestSplit_NumberedHeaderPreserved(t *testing.T) {
	got := Split("3.2 Başvuru koşulları hk.")
	assert.Equal(t, []string{"3.2 Başvuru koşulları hk."}, got)
}

func TestSplit_ShortHeaderKeptWhereNoiseIsDropped(t *testing.T) {
	got := Split("4.1 Amaç! Öncelik verimliliktir.")
	assert.Equal(t, []string{"4.1 Amaç!", "Öncelik verimliliktir."}, got)

	got = Split("Amaç bu! Öncelik verimliliktir.")
	assert.Equal(t, []string{"Öncelik verimliliktir."}, got)
}

func TestSplit_HeaderRule(t *testing.T) {
	got := Split("1 2")
	assert.Equal(t, []string{"1 2"}, got)

	got = Split("1.2.3 bir iki üç dört beş altı yedi sekiz dokuz on")
	assert.Len(t, got, 1, "long enough to be kept by length even with eleven words")
}

func TestSplit_Deterministic(t *testing.T) {
	text := "3.2 Başvuru koşulları hk. Başvurular e-Devlet üzerinden alınır. Son tarih 1.9.2024'tür. Sonuç açıklanır."
	first := Split(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Split(text))
	}
}
