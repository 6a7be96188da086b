package templates

import (
	"time"

	"github.com/oksasatya/devconnect/config"
)

// Option adjusts EmailData built by the New*Data constructors.
type Option func(*EmailData)

// displayLayout is used until the worker localizes times for the recipient.
const displayLayout = "02 January 2006, 15:04 MST"

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format(displayLayout)
	}
}
func WithResetURL(url string) Option { return func(d *EmailData) { d.ResetURL = url } }

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format(displayLayout)
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,

		ResetURL: cfg.ResetPasswordURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, Welcome, name, email, email, opts...)
	return ToMap(d)
}

func NewForgotPasswordData(cfg *config.Config, name, email, recipient string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ForgotPassword, name, email, recipient, opts...)
	return ToMap(d)
}

// NewPostCommentedData tells a post author that actorName replied to their post.
func NewPostCommentedData(cfg *config.Config, authorName, authorEmail, actorName, postID, postText, commentText string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, PostCommented, authorName, authorEmail, authorEmail, opts...)
	d.ActorName = actorName
	d.PostText = postText
	d.CommentText = commentText
	d.PostURL = cfg.PostURL + postID
	return ToMap(d)
}
