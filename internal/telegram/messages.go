package telegram

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/report-grounder/internal/entity"
)

const (
	queryTopK    = 5
	snippetRunes = 200
)

const msgHelp = `Rapor asistanı komutları:

/process <rapor> <soru no | soru metni> - indekslenmiş bir rapor için soruyu cevaplar
/status <iş no> - işin durumunu gösterir
/query <rapor> <soru metni> - raporda en ilgili parçaları arar
/answer <rapor> <soru no> [md|docx|pdf] - kayıtlı cevabı dosya olarak gönderir

Yeni bir raporu işlemek için PDF dosyasını "<rapor> <soru no>" açıklamasıyla gönderin.`

const (
	msgUseHelp        = "Komutları görmek için /help yazın."
	msgUnknownCommand = "❌ Bilinmeyen komut. /help yazın."
	msgStatusUsage    = "Kullanım: /status <iş no>"
	msgQueryUsage     = "Kullanım: /query <rapor> <soru metni>"
	msgAnswerUsage    = "Kullanım: /answer <rapor> <soru no> [md|docx|pdf]"
	msgProcessUsage   = "Kullanım: /process <rapor> <soru no | soru metni>"
	msgCaptionUsage   = "PDF açıklaması \"<rapor> <soru no | soru metni>\" biçiminde olmalı."
	msgNoHits         = "Sonuç bulunamadı."
)

func jobAccepted(job *entity.Job, questionID int) string {
	return fmt.Sprintf("⏳ İş alındı: %s\nRapor %s, soru %d\nDurumu görmek için: /status %s",
		job.ID, job.ReportID, questionID, job.ID)
}

func formatHits(resp *entity.QueryResponse) string {
	if len(resp.Hits) == 0 {
		return msgNoHits
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rapor %s için en ilgili %d parça:\n", resp.ReportID, len(resp.Hits))
	for _, h := range resp.Hits {
		text := h.ChunkText
		if utf8.RuneCountInString(text) > snippetRunes {
			text = string([]rune(text)[:snippetRunes]) + "…"
		}
		fmt.Fprintf(&b, "\n%d. [%s] %.3f\n%s\n", h.Rank, h.Category, h.Score, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// errorText turns a pipeline error into a chat reply.
func errorText(err error) string {
	switch {
	case errors.Is(err, entity.ErrJobNotFound):
		return "❌ İş bulunamadı."
	case errors.Is(err, entity.ErrReportNotIndexed):
		return "❌ Rapor henüz indekslenmemiş. Önce PDF dosyasını gönderin."
	case errors.Is(err, entity.ErrQuestionNotFound):
		return "❌ Soru bulunamadı."
	case errors.Is(err, entity.ErrAnswerNotFound):
		return "❌ Bu soru için kayıtlı cevap yok."
	case errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrMissingField):
		return "❌ Geçersiz parametre: " + err.Error()
	case errors.Is(err, entity.ErrInvalidFile), errors.Is(err, entity.ErrInvalidExtension), errors.Is(err, entity.ErrFileTooLarge):
		return "❌ Geçersiz dosya: " + err.Error()
	default:
		return "❌ Bir hata oluştu. Lütfen tekrar deneyin."
	}
}
