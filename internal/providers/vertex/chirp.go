package vertex

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// SpeechParams are the inputs for speech synthesis. Voice overrides the
// locale-derived default when set.
type SpeechParams struct {
	Text   string
	Voice  string
	Locale string
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
		SsmlGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// supportedSpeechLocales are the language tags with provisioned standard
// voices; requests in other languages fall back to US English.
var supportedSpeechLocales = []language.Tag{
	language.AmericanEnglish, // en-US, default
	language.BritishEnglish,
	language.German,
	language.French,
	language.Japanese,
	language.Indonesian,
}

var speechMatcher = language.NewMatcher(supportedSpeechLocales)

var voiceByLocale = map[string]string{
	"en-US": "en-US-Standard-C",
	"en-GB": "en-GB-Standard-A",
	"de":    "de-DE-Standard-B",
	"fr":    "fr-FR-Standard-A",
	"ja":    "ja-JP-Standard-B",
	"id":    "id-ID-Standard-A",
}

// voiceForLocale picks the synthesis voice for a requested locale.
func voiceForLocale(locale string) (languageCode, voiceName string) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	_, idx, _ := speechMatcher.Match(tag)
	code := supportedSpeechLocales[idx].String()
	if name, ok := voiceByLocale[code]; ok {
		// Voice names embed the full region; derive the code from the name
		// so partial tags like "de" still produce "de-DE".
		return languageCodeFromVoice(name), name
	}
	return "en-US", voiceByLocale["en-US"]
}

// languageCodeFromVoice extracts the language code leading a platform voice
// name ("en-US-Wavenet-D" yields "en-US"). Returns "" when the name does not
// start with a language-region pair.
func languageCodeFromVoice(name string) string {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	lang, region := parts[0], parts[1]
	if len(lang) < 2 || len(lang) > 3 || lang != strings.ToLower(lang) {
		return ""
	}
	if len(region) != 2 || region != strings.ToUpper(region) {
		return ""
	}
	return lang + "-" + region
}

// SynthesizeSpeech converts text to speech, persists the audio to the
// artifact bucket, and returns its storage-native identifier. Unlike video,
// this path is fully synchronous.
func (c *Client) SynthesizeSpeech(ctx context.Context, params SpeechParams) (*StoredSpeech, error) {
	if strings.TrimSpace(params.Text) == "" {
		return nil, errors.New("synthesize speech: text is required")
	}
	if c.opts.Uploader == nil {
		return nil, errors.New("synthesize speech: no uploader configured")
	}

	languageCode, voiceName := voiceForLocale(params.Locale)
	if params.Voice != "" {
		voiceName = params.Voice
		if code := languageCodeFromVoice(voiceName); code != "" {
			languageCode = code
		}
	}

	var req synthesizeRequest
	req.Input.Text = params.Text
	req.Voice.LanguageCode = languageCode
	req.Voice.Name = voiceName
	req.Voice.SsmlGender = "NEUTRAL"
	req.AudioConfig.AudioEncoding = "MP3"

	endpoint := c.opts.TTSBaseURL + "/text:synthesize"
	var resp synthesizeResponse
	if err := c.post(ctx, "text-to-speech", endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	if resp.AudioContent == "" {
		return nil, errors.New("synthesize speech: no audio content returned")
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: decode audio: %w", err)
	}

	filePath := path.Join("audio", uuid.NewString()+".mp3")
	uri, err := c.opts.Uploader.Upload(ctx, filePath, "audio/mp3", audio)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: store audio: %w", err)
	}
	return &StoredSpeech{AudioURI: uri, FilePath: filePath}, nil
}
