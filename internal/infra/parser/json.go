package parser

import (
	"fmt"

	"daily-digest/internal/domain/entity"

	"github.com/tidwall/gjson"
)

// defaultTitle is used when a payload carries no title of its own.
const defaultTitle = "Daily"

// parseJSON validates the body and returns its root value.
func parseJSON(kind entity.ParserKind, body []byte) (gjson.Result, error) {
	if len(body) == 0 {
		return gjson.Result{}, &entity.ParseError{Parser: kind, Message: "empty body", Err: entity.ErrEmptyContent}
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &entity.ParseError{Parser: kind, Message: "invalid JSON"}
	}
	return gjson.ParseBytes(body), nil
}

// itemArray returns the root array, or the first candidate container of a
// root object.
func itemArray(kind entity.ParserKind, root gjson.Result, candidates []string) (gjson.Result, error) {
	if root.IsArray() {
		return root, nil
	}
	if !root.IsObject() {
		return gjson.Result{}, &entity.ParseError{Parser: kind, Message: fmt.Sprintf("expected object or array, got %s", root.Type)}
	}
	arr, ok := firstArray(root, candidates)
	if !ok {
		return gjson.Result{}, &entity.ParseError{Parser: kind, Message: "no item array found"}
	}
	return arr, nil
}

// baseItem builds an item from an object element. It returns false when the
// element has no usable title.
func baseItem(el gjson.Result, position int) (entity.ContentItem, bool) {
	if !el.IsObject() {
		return entity.ContentItem{}, false
	}
	title := firstString(el, titleFields)
	if title == "" {
		return entity.ContentItem{}, false
	}
	return entity.ContentItem{
		Title:       title,
		URL:         firstString(el, urlFields),
		Index:       position,
		Description: firstString(el, descriptionFields),
		ImageURL:    firstString(el, imageFields),
	}, true
}

func (d *decoders) newBundle(title, source string) *entity.ContentBundle {
	return &entity.ContentBundle{
		Title:      title,
		Items:      []entity.ContentItem{},
		UpdateTime: d.stamp(),
		Source:     source,
	}
}

// plainList decodes a JSON array of {title,url}, either at the root or
// under the first container field of a root object.
func (d *decoders) plainList(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	root, err := parseJSON(entity.ParserDefault, resp.Body)
	if err != nil {
		return nil, err
	}
	arr, err := itemArray(entity.ParserDefault, root, containerFields)
	if err != nil {
		return nil, err
	}

	bundle := d.newBundle(defaultTitle, resp.Host())
	for i, el := range arr.Array() {
		if item, ok := baseItem(el, i+1); ok {
			bundle.Items = append(bundle.Items, item)
		}
	}
	return bundle, nil
}

// hotList is plainList plus a per-item popularity value.
func (d *decoders) hotList(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	root, err := parseJSON(entity.ParserHotList, resp.Body)
	if err != nil {
		return nil, err
	}
	arr, err := itemArray(entity.ParserHotList, root, containerFields)
	if err != nil {
		return nil, err
	}

	title := defaultTitle
	if root.IsObject() {
		if t := firstString(root, titleFields); t != "" {
			title = t
		}
	}
	bundle := d.newBundle(title, resp.Host())
	for i, el := range arr.Array() {
		item, ok := baseItem(el, i+1)
		if !ok {
			continue
		}
		item.Hot = firstString(el, hotFields)
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}

// envelope decodes {success|code, data: [...]} payloads.
func (d *decoders) envelope(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	root, err := parseJSON(entity.ParserEnvelope, resp.Body)
	if err != nil {
		return nil, err
	}
	if !root.IsObject() {
		return nil, &entity.ParseError{Parser: entity.ParserEnvelope, Message: "expected an object envelope"}
	}
	if !envelopeOK(root) {
		return nil, &entity.ParseError{
			Parser:  entity.ParserEnvelope,
			Message: fmt.Sprintf("upstream reported failure: %s", firstString(root, []string{"message", "msg"})),
		}
	}
	arr, ok := firstArray(root, containerFields)
	if !ok {
		return nil, &entity.ParseError{Parser: entity.ParserEnvelope, Message: "envelope has no data array"}
	}

	title := firstString(root, titleFields)
	if title == "" {
		title = defaultTitle
	}
	bundle := d.newBundle(title, resp.Host())
	if ut := firstString(root, updateTimeFields); ut != "" {
		bundle.UpdateTime = ut
	}
	for i, el := range arr.Array() {
		item, ok := baseItem(el, i+1)
		if !ok {
			continue
		}
		if idx := firstInt(el, indexFields); idx > 0 {
			item.Index = idx
		}
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}

// envelopeOK reports whether the envelope carries a success marker:
// success true or 1, or code 200 or 0.
func envelopeOK(root gjson.Result) bool {
	if s := root.Get("success"); s.Exists() {
		switch s.Type {
		case gjson.True:
			return true
		case gjson.Number:
			return s.Int() == 1
		default:
			return false
		}
	}
	if c := root.Get("code"); c.Exists() && c.Type == gjson.Number {
		code := c.Int()
		return code == 200 || code == 0
	}
	return false
}

// historyToday decodes "on this day" lists, prefixing titles with the year.
func (d *decoders) historyToday(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	root, err := parseJSON(entity.ParserHistoryToday, resp.Body)
	if err != nil {
		return nil, err
	}
	arr, err := itemArray(entity.ParserHistoryToday, root, containerFields)
	if err != nil {
		return nil, err
	}

	bundle := d.newBundle(fmt.Sprintf("On this day (%s)", d.now().Format("01-02")), "history")
	for i, el := range arr.Array() {
		item, ok := baseItem(el, i+1)
		if !ok {
			continue
		}
		if year := firstString(el, yearFields); year != "" {
			item.Title = fmt.Sprintf("%s: %s", year, item.Title)
		}
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}
