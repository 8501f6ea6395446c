package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	config "github.com/farhan2921/court_connect/configs"
	"github.com/farhan2921/court_connect/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transcriptLine struct {
	Sender  string
	SentAt  string
	Content string
}

// ExportTranscript renders a chat's full history to PDF and uploads it,
// returning the download URL. Only participants may export.
func ExportTranscript(ctx context.Context, db *gorm.DB, chatID, requesterID uuid.UUID) (string, error) {
	chat, err := GetChat(db, chatID, requesterID)
	if err != nil {
		return "", err
	}

	participants, err := ChatParticipants(db, chatID)
	if err != nil {
		return "", err
	}
	names := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.FullName()
	}

	var messages []models.Message
	if err := db.Where("chat_id = ?", chatID).Order("sent_at ASC, id ASC").Find(&messages).Error; err != nil {
		return "", err
	}

	lines := make([]transcriptLine, 0, len(messages))
	for _, m := range messages {
		sender := names[m.SenderID]
		if sender == "" {
			sender = m.SenderID.String()
		}
		lines = append(lines, transcriptLine{
			Sender:  sender,
			SentAt:  m.SentAt.Format("Jan 2, 2006 15:04"),
			Content: m.Content,
		})
	}

	htmlData, err := renderTranscriptHTML(DisplayName(chat, participants, requesterID), lines)
	if err != nil {
		return "", err
	}

	pdfBytes, err := printPDF(ctx, htmlData)
	if err != nil {
		return "", err
	}

	return uploadTranscript(ctx, pdfBytes, chatID)
}

func renderTranscriptHTML(title string, lines []transcriptLine) (string, error) {
	tmpl, err := template.ParseFiles("templates/transcript.html")
	if err != nil {
		return "", err
	}

	data := struct {
		Title        string
		ExportedAt   string
		Lines        []transcriptLine
		MessageCount int
	}{
		Title:        title,
		ExportedAt:   time.Now().Format("January 2, 2006"),
		Lines:        lines,
		MessageCount: len(lines),
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func printPDF(parent context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadTranscript(ctx context.Context, pdfBytes []byte, chatID uuid.UUID) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	publicID := fmt.Sprintf("transcripts/chat_%s_%d", chatID, time.Now().Unix())
	result, err := cld.Upload.Upload(ctx, bytes.NewReader(pdfBytes), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return result.SecureURL, nil
}
