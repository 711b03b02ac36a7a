package certgen

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"confreg/internal/model"
)

const TemplateVersion = "v1"

// Generator renders certificate PDFs and registration QR codes onto disk.
type Generator struct {
	certDir string
	qrDir   string
	log     *zerolog.Logger
}

func New(certDir, qrDir string, log *zerolog.Logger) (*Generator, error) {
	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create certificate dir: %w", err)
	}
	if err := os.MkdirAll(qrDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create qrcode dir: %w", err)
	}
	return &Generator{certDir: certDir, qrDir: qrDir, log: log}, nil
}

func (g *Generator) PathFor(code string) string {
	return filepath.Join(g.certDir, code+".pdf")
}

// Generate writes the certificate PDF for the participant under the given
// code and returns its path. Calling twice with different codes produces two
// documents for the same participant.
func (g *Generator) Generate(p *model.Participant, code string) (string, error) {
	path := g.PathFor(code)

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.AddPage()
	w, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetXY(0, 100)
	pdf.CellFormat(w, 40, "AusIMM Conference Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 20)
	pdf.SetXY(0, 200)
	pdf.CellFormat(w, 30, fmt.Sprintf("%s %s", p.FirstName, p.LastName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 16)
	pdf.SetXY(0, 250)
	pdf.CellFormat(w, 24, fmt.Sprintf("Member Type: %s", p.MemberType), "", 1, "C", false, 0, "")

	pdf.SetXY(0, 300)
	pdf.CellFormat(w, 24, fmt.Sprintf("Date: %s", time.Now().Format("January 2, 2006")), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write certificate pdf: %w", err)
	}

	g.log.Info().Str("certificate_code", code).Str("path", path).Msg("certificate generated")
	return path, nil
}

// GenerateQR encodes the registration identifier into a PNG and returns its
// path.
func (g *Generator) GenerateQR(registrationID string) (string, error) {
	path := filepath.Join(g.qrDir, registrationID+".png")
	if err := qrcode.WriteFile(registrationID, qrcode.Medium, 256, path); err != nil {
		return "", fmt.Errorf("failed to write qr code: %w", err)
	}
	return path, nil
}

// CleanupOldFiles removes certificates and QR codes older than maxAge.
func (g *Generator) CleanupOldFiles(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	for _, dir := range []string{g.certDir, g.qrDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				path := filepath.Join(dir, e.Name())
				if err := os.Remove(path); err != nil {
					g.log.Warn().Err(err).Str("path", path).Msg("failed to remove stale file")
					continue
				}
				g.log.Debug().Str("path", path).Msg("stale file removed")
			}
		}
	}

	return nil
}
