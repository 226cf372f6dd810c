package korean

import (
	"regexp"
	"strings"
)

// noisePattern covers words that carry search intent but no content:
// "~관련 파일 찾아줘" style noise that would otherwise poison AND matching.
// Go regexps match alternatives leftmost-first, so within each word family
// the longest form comes first; otherwise "찾아줘" would strip as "찾아"
// and leave a "줘" remnant behind as a phantom keyword.
var noisePattern = regexp.MustCompile(
	"(관련해서는|관련해서도|관련해서|관련한거|관련한것|관련한\\s*건|관련한|관련된거|관련된것|관련된\\s*건|관련된|관련|" +
		"파일|자료|내역|주고받은|주고 받은|주고받기|주고 받기|건네받은|건네 받은|내가준|내가 준|" +
		"사진|이미지|그림|문서|대화한|대화|얘기한|얘기|전송한|전송|전달한|전달|수신한|수신|" +
		"채팅방|단톡방|단톡|톡방|나눈거|나눈파일|나눈|공유한|공유|" +
		"했던거|했던것|했던\\s*건|한거|한것|한\\s*건|그거|그것|그\\s*건|이거|이것|이\\s*건|" +
		"내용\\s*정리|내용들|내용|정리한|정리본|정리|요약본|요약|" +
		"찾아주세요|찾아줘|찾아|조회해주세요|조회해줘|조회해|조회|" +
		"입니다|이에요|해주세요|해줘|좀|건)")

// particlePattern strips honorifics with trailing particles ("님이랑", "씨한테").
var particlePattern = regexp.MustCompile("(님|씨)(이랑|랑|과|와|한테|에게)?")

// glyphPattern keeps letters, digits, whitespace and the filename
// characters ._- ; everything else becomes a space.
var glyphPattern = regexp.MustCompile(`[^\p{L}\p{N}\s._-]`)

var spacePattern = regexp.MustCompile(`\s+`)

// StripNoise removes search-intent stopwords from s.
func StripNoise(s string) string {
	return CollapseSpaces(noisePattern.ReplaceAllString(s, " "))
}

// StripParticles removes honorific/particle tails from s.
func StripParticles(s string) string {
	return particlePattern.ReplaceAllString(s, " ")
}

// CollapseSpaces trims s and folds runs of whitespace into single spaces.
func CollapseSpaces(s string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ContainsHangul reports whether s contains at least one Hangul syllable.
func ContainsHangul(s string) bool {
	for _, r := range s {
		if r >= 0xAC00 && r <= 0xD7A3 {
			return true
		}
	}
	return false
}
