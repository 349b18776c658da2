package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// statementScanPrompt is the shared prompt used by all extraction backends
const statementScanPrompt = `Analyze the provided image of a financial document.

TASK:
1. Decide if this is a valid financial document (bank statement, receipt, invoice, bill, or financial table).
2. Extract ALL transactions.
3. CRITICAL: Identify the currency of each transaction. If it is NOT USD, estimate the converted value in USD for the "amountInUSD" field using approximate current exchange rates.

Return ONLY valid JSON in this exact format:
{
  "isValidFinancialDocument": true,
  "validationReason": "",
  "transactions": [
    {"date": "YYYY-MM-DD", "description": "...", "amount": 0.00, "currency": "USD", "amountInUSD": 0.00, "category": "...", "notes": "..."}
  ]
}

RULES:
- Date format: YYYY-MM-DD.
- Expenses are negative numbers (e.g. -10.50), income is positive.
- Categories: Groceries, Utilities, Rent, Dining, Travel, Salary, Transfer, Tech/Services, Medical.
- If the image is blurry or not a financial document, set "isValidFinancialDocument" to false and explain why in "validationReason" (e.g. "Not a financial document. Please upload a receipt or invoice.").
- Do not include any text before or after the JSON.
- Do not use markdown code blocks.`

// pdfToImage renders the first page of a PDF as a PNG image. Multi-page
// statements lose pages past the first; the model sees page one only.
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not supported by the standard
	// image package, so it gets its own decoder
	if isHEIC(imageData, mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding image (supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF): %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEIC checks the ftyp box brand and the MIME type for HEIC/HEIF
func isHEIC(data []byte, mimeType string) bool {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		switch string(data[8:12]) {
		case "heic", "heif", "mif1", "msf1":
			return true
		}
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareDocumentData converts the uploaded document to PNG so every
// backend receives a single predictable format. PDFs are rasterized,
// HEIC photos and other image formats are re-encoded. Returns the PNG
// data and whether a conversion occurred.
func prepareDocumentData(data []byte, contentType string) ([]byte, bool, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "application/pdf" {
		pngData, err := pdfToImage(data)
		if err != nil {
			return nil, false, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, true, nil
	}

	if mimeType != "image/png" || isHEIC(data, mimeType) {
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, false, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, true, nil
	}

	// Already PNG
	return data, false, nil
}
