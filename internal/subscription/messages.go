package subscription

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type catalogEntry struct {
	en, ko   string
	withDate bool
}

var catalog = map[Status]catalogEntry{
	StatusActive:         {"Subscription is active until %s.", "구독이 유효합니다. 만료일: %s", true},
	StatusExpired:        {"Subscription expired on %s.", "구독이 만료되었습니다. 만료일: %s", true},
	StatusNoSubscription: {"No subscription.", "구독 정보가 없습니다.", false},
	StatusCreated:        {"Subscription created, valid until %s.", "구독이 생성되었습니다. 만료일: %s", true},
	StatusRenewed:        {"Subscription renewed until %s.", "구독이 갱신되었습니다. 만료일: %s", true},
	StatusCancelled:      {"Subscription cancelled.", "구독이 취소되었습니다.", false},
	StatusNotFound:       {"No subscription found for this user.", "해당 사용자의 구독을 찾을 수 없습니다.", false},
	StatusOK:             {"OK.", "완료되었습니다.", false},
	StatusInvalid:        {"The request is invalid.", "요청 형식이 올바르지 않습니다.", false},
	StatusUnauthorized:   {"Authentication failed.", "인증에 실패했습니다.", false},
	StatusUnknownProduct: {"Unknown product.", "알 수 없는 제품입니다.", false},
	StatusError:          {"A temporary error occurred. Please try again later.", "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.", false},
}

var supportedLanguages = []language.Tag{language.English, language.Korean}

func init() {
	for status, e := range catalog {
		key := string(status)
		_ = message.SetString(language.English, key, e.en)
		_ = message.SetString(language.Korean, key, e.ko)
	}
}

// Localizer renders user-facing result messages. Callers branch on Status,
// never on the rendered text.
type Localizer struct {
	matcher   language.Matcher
	supported []language.Tag
	fallback  language.Tag
}

// NewLocalizer builds a Localizer whose fallback is defaultLang when it is
// supported, English otherwise.
func NewLocalizer(defaultLang string) *Localizer {
	fallback := language.English
	if tag, err := language.Parse(defaultLang); err == nil {
		for _, s := range supportedLanguages {
			if base, _ := tag.Base(); base == mustBase(s) {
				fallback = s
			}
		}
	}

	supported := []language.Tag{fallback}
	for _, s := range supportedLanguages {
		if s != fallback {
			supported = append(supported, s)
		}
	}
	return &Localizer{
		matcher:   language.NewMatcher(supported),
		supported: supported,
		fallback:  fallback,
	}
}

// Match picks a supported language for an Accept-Language header value.
func (l *Localizer) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.fallback
	}
	return l.supported[idx]
}

// Message renders the text for status. expires fills the date into messages
// that mention one.
func (l *Localizer) Message(tag language.Tag, status Status, expires string) string {
	e, ok := catalog[status]
	if !ok {
		return string(status)
	}
	p := message.NewPrinter(tag)
	key := message.Key(string(status), e.en)
	if e.withDate {
		return p.Sprintf(key, expires)
	}
	return p.Sprintf(key)
}

func mustBase(t language.Tag) language.Base {
	b, _ := t.Base()
	return b
}
