package parser

import (
	"bytes"
	"fmt"
	"strings"

	"daily-digest/internal/domain/entity"

	"github.com/tidwall/gjson"
)

// negotiated branches on Content-Type: images are kept as binary payloads,
// JSON is decoded as a digest. Anything else is rejected.
func (d *decoders) negotiated(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	ct := resp.ContentType()
	switch {
	case isImage(ct):
		return d.imageBundle(entity.ParserNegotiated, resp)
	case isJSON(ct, resp.Body):
		return d.jsonDigest(resp)
	default:
		return nil, &entity.ParseError{
			Parser:  entity.ParserNegotiated,
			Message: fmt.Sprintf("unsupported Content-Type %q", ct),
			Err:     entity.ErrUnexpectedContentType,
		}
	}
}

// isJSON accepts JSON media types, and sniffs the body when the upstream
// sent a generic or missing type.
func isJSON(contentType string, body []byte) bool {
	switch {
	case contentType == "application/json", contentType == "text/json", strings.HasSuffix(contentType, "+json"):
		return true
	case contentType == "", contentType == "text/plain", contentType == "application/octet-stream":
		trimmed := bytes.TrimSpace(body)
		return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
	}
	return false
}

// jsonDigest decodes a digest whose items are either plain strings or objects.
func (d *decoders) jsonDigest(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	root, err := parseJSON(entity.ParserNegotiated, resp.Body)
	if err != nil {
		return nil, err
	}
	arr, err := itemArray(entity.ParserNegotiated, root, digestContainerFields)
	if err != nil {
		return nil, err
	}

	title := defaultTitle
	if root.IsObject() {
		if t := firstString(root.Get("data"), titleFields); t != "" {
			title = t
		} else if t := firstString(root, titleFields); t != "" {
			title = t
		}
	}
	bundle := d.newBundle(title, resp.Host())
	if root.IsObject() {
		if ut := firstString(root.Get("data"), updateTimeFields); ut != "" {
			bundle.UpdateTime = ut
		} else if ut := firstString(root, updateTimeFields); ut != "" {
			bundle.UpdateTime = ut
		}
	}

	for i, el := range arr.Array() {
		if el.Type == gjson.String {
			if s := strings.TrimSpace(el.Str); s != "" {
				bundle.Items = append(bundle.Items, entity.ContentItem{Title: s, Index: i + 1})
			}
			continue
		}
		if item, ok := baseItem(el, i+1); ok {
			item.Hot = firstString(el, hotFields)
			bundle.Items = append(bundle.Items, item)
		}
	}
	return bundle, nil
}
