package model

import (
	"strings"

	"telegram-lead-bot/internal/domain"
)

type MediaKind string

const (
	MediaNone      MediaKind = "none"
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaVideoNote MediaKind = "video_note"
)

func (k MediaKind) IsMedia() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaVideoNote:
		return true
	}
	return false
}

// ComposedPost is the broadcast an admin is assembling. It lives only in the
// conversation draft and is discarded after the broadcast or a reset.
type ComposedPost struct {
	Kind       MediaKind `json:"kind"`
	MediaRef   string    `json:"media_ref"`
	Caption    string    `json:"caption"`
	CaptionSet bool      `json:"caption_set"`
}

// AttachMedia sets kind and reference together. Any previous caption is dropped.
func (p *ComposedPost) AttachMedia(kind MediaKind, ref string) error {
	ref = strings.TrimSpace(ref)
	if !kind.IsMedia() || ref == "" {
		return domain.ErrInvalidArgument
	}
	p.Kind = kind
	p.MediaRef = ref
	p.Caption = ""
	p.CaptionSet = false
	return nil
}

// AttachCaption stores text verbatim; an empty caption is allowed.
func (p *ComposedPost) AttachCaption(text string) error {
	if !p.HasMedia() {
		return domain.ErrInvalidArgument
	}
	p.Caption = text
	p.CaptionSet = true
	return nil
}

func (p ComposedPost) HasMedia() bool { return p.Kind.IsMedia() && p.MediaRef != "" }

// Ready reports whether the post can be offered for confirmation.
func (p ComposedPost) Ready() bool { return p.HasMedia() && p.CaptionSet }
