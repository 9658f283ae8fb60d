package gateway

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// imagePart is one image attachment pulled out of a message
type imagePart struct {
	data     []byte
	mimeType string
}

const maxPartDepth = 4

// extractMessageContent pulls the plain text and any image attachments
// out of an email message. Multipart containers are walked recursively,
// so inline photos inside multipart/related bodies are found too.
func extractMessageContent(msg *mail.Message) (string, []imagePart, error) {
	contentType := msg.Header.Get("Content-Type")

	var text bytes.Buffer
	var images []imagePart

	if !strings.Contains(strings.ToLower(contentType), "multipart/") {
		body := decodedReader(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		bodyBytes, err := io.ReadAll(body)
		if err != nil {
			return "", nil, err
		}
		return string(bodyBytes), nil, nil
	}

	if err := walkParts(msg.Body, contentType, &text, &images, 0); err != nil {
		// Keep whatever was collected before the malformed part.
		if text.Len() > 0 || len(images) > 0 {
			return text.String(), images, nil
		}
		return "", nil, err
	}

	return text.String(), images, nil
}

// walkParts descends one multipart container, collecting text/plain
// content and image attachments.
func walkParts(r io.Reader, contentType string, text *bytes.Buffer, images *[]imagePart, depth int) error {
	if depth > maxPartDepth {
		return nil
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return readLeafPart(r, contentType, "", text, images)
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		text.Write(bodyBytes)
		return nil
	}

	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		partType := part.Header.Get("Content-Type")
		partMedia, _, _ := mime.ParseMediaType(partType)

		if strings.HasPrefix(partMedia, "multipart/") {
			if err := walkParts(part, partType, text, images, depth+1); err != nil {
				return err
			}
			continue
		}

		if err := readLeafPart(part, partType, part.Header.Get("Content-Transfer-Encoding"), text, images); err != nil {
			continue // Skip parts we cannot read
		}
	}

	return nil
}

// readLeafPart consumes one non-container part. Text lands in the text
// buffer, images in the attachment list, everything else is dropped.
func readLeafPart(r io.Reader, contentType, encoding string, text *bytes.Buffer, images *[]imagePart) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "" || strings.HasPrefix(mediaType, "text/plain"):
		partBytes, err := io.ReadAll(decodedReader(r, encoding))
		if err != nil {
			return err
		}
		text.Write(partBytes)
		text.WriteString("\n")

	case strings.HasPrefix(mediaType, "image/"):
		partBytes, err := io.ReadAll(decodedReader(r, encoding))
		if err != nil {
			return err
		}
		*images = append(*images, imagePart{data: partBytes, mimeType: mediaType})
	}

	return nil
}

// decodedReader undoes the part's transfer encoding
func decodedReader(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
