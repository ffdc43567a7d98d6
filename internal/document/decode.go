// Package document turns supplier files into the linearized plain text the
// extraction engine consumes: one line per visual row, cells separated by
// single spaces. The engine itself never sees file formats.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

func DecodePDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
	return out.String(), nil
}

// DecodeHTML linearizes an HTML document: each table row becomes one line of
// space-joined cells, remaining block text is appended line by line.
func DecodeHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, compactSpaces(cell.Text()))
			})
			if line := strings.TrimSpace(strings.Join(cells, " ")); line != "" {
				out.WriteString(line)
				out.WriteString("\n")
			}
		})
		table.Remove()
	})

	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := compactSpaces(line); trimmed != "" {
			out.WriteString(trimmed)
			out.WriteString("\n")
		}
	}
	return out.String(), nil
}

func DecodeXLSX(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var out strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				cells = append(cells, compactSpaces(c))
			}
			if line := strings.TrimSpace(strings.Join(cells, " ")); line != "" {
				out.WriteString(line)
				out.WriteString("\n")
			}
		}
	}
	return out.String(), nil
}

type DecodedMail struct {
	Subject         string
	Text            string
	AttachmentNames []string
}

// DecodeEML decodes a MIME mail: body text first, then every supported
// attachment (pdf/xlsx/html), all concatenated into one text stream so a
// single template span covers whichever part carries the item table.
func DecodeEML(raw []byte) (DecodedMail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return DecodedMail{}, err
	}

	var out strings.Builder
	if env.Text != "" {
		out.WriteString(env.Text)
		out.WriteString("\n")
	}
	if env.HTML != "" {
		if text, err := DecodeHTML([]byte(env.HTML)); err == nil {
			out.WriteString(text)
		}
	}

	names := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		names = append(names, filename)

		text, err := decodeByExtension(strings.ToLower(filepath.Ext(filename)), att.Content)
		if err == nil && text != "" {
			out.WriteString(text)
		}
	}

	return DecodedMail{
		Subject:         env.GetHeader("Subject"),
		Text:            out.String(),
		AttachmentNames: names,
	}, nil
}

// DecodeFile reads and decodes a file by extension.
func DecodeFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".eml" {
		decoded, err := DecodeEML(content)
		if err != nil {
			return "", err
		}
		return decoded.Text, nil
	}
	return decodeByExtension(ext, content)
}

func decodeByExtension(ext string, content []byte) (string, error) {
	switch ext {
	case ".pdf":
		return DecodePDF(content)
	case ".xlsx", ".xls":
		return DecodeXLSX(content)
	case ".html", ".htm":
		return DecodeHTML(content)
	case ".txt", "":
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported document extension: %s", ext)
	}
}

func compactSpaces(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
