package parser

import (
	"fmt"
	"strings"

	"daily-digest/internal/domain/entity"
)

// imageTitle names the single item of an image digest.
const imageTitle = "Image digest"

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// binaryImage wraps an image response as a bundle carrying the raw bytes.
func (d *decoders) binaryImage(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	return d.imageBundle(entity.ParserBinaryImage, resp)
}

func (d *decoders) imageBundle(kind entity.ParserKind, resp *entity.RawResponse) (*entity.ContentBundle, error) {
	ct := resp.ContentType()
	if !isImage(ct) {
		return nil, &entity.ParseError{Parser: kind, Message: fmt.Sprintf("response is not an image, Content-Type: %q", ct)}
	}
	if len(resp.Body) == 0 {
		return nil, &entity.ParseError{Parser: kind, Message: "empty image body", Err: entity.ErrEmptyContent}
	}

	bundle := d.newBundle(imageTitle, resp.Host())
	bundle.Items = append(bundle.Items, entity.ContentItem{
		Title:    imageTitle,
		URL:      resp.URL,
		Index:    1,
		ImageURL: resp.URL,
	})
	bundle.BinaryPayload = append([]byte(nil), resp.Body...)
	return bundle, nil
}
