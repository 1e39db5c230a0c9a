// Package locale renders instants for the "last update" display in the
// configured locale.
package locale

import (
	"time"

	"golang.org/x/text/language"
)

type style struct {
	layout string
	prefix string
}

// supported[0] is the fallback when nothing matches.
var supported = []language.Tag{
	language.MustParse("zh-CN"),
	language.MustParse("en-US"),
	language.MustParse("en-GB"),
}

var styles = []style{
	{layout: "2006/1/2 15:04:05", prefix: "最后更新: "},
	{layout: "1/2/2006, 3:04:05 PM", prefix: "Last update: "},
	{layout: "02/01/2006, 15:04:05", prefix: "Last update: "},
}

var matcher = language.NewMatcher(supported)

// Formatter converts instants to display strings.
type Formatter struct {
	tag   language.Tag
	style style
	loc   *time.Location
}

// New returns a formatter for the best supported match of locale (a BCP 47
// tag such as "zh-CN"). Instants are shown in loc; nil means time.Local.
func New(locale string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	idx := 0
	if tag, err := language.Parse(locale); err == nil {
		_, i, conf := matcher.Match(tag)
		if conf != language.No {
			idx = i
		}
	}
	return &Formatter{tag: supported[idx], style: styles[idx], loc: loc}
}

// Tag returns the matched locale.
func (f *Formatter) Tag() language.Tag { return f.tag }

// Time renders t without the label prefix.
func (f *Formatter) Time(t time.Time) string {
	return t.In(f.loc).Format(f.style.layout)
}

// LastUpdate renders t with the locale's "last update" label.
func (f *Formatter) LastUpdate(t time.Time) string {
	return f.style.prefix + f.Time(t)
}
