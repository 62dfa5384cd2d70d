// Package agent implements the town inhabitants: personality-driven state
// machines whose schedules, thoughts and disaster behavior are mediated by an
// external language model with deterministic fallbacks.
package agent

import "strings"

// mbtiCooperation is the base cooperation inclination per personality type.
var mbtiCooperation = map[string]float64{
	"ISTJ": 0.2, "ISFJ": 0.5, "INFJ": 0.6, "INTJ": 0.3,
	"ISTP": 0.4, "ISFP": 0.5, "INFP": 0.7, "INTP": 0.4,
	"ESTP": 0.6, "ESFP": 0.7, "ENFP": 0.8, "ENTP": 0.7,
	"ESTJ": 0.8, "ESFJ": 0.9, "ENFJ": 0.9, "ENTJ": 0.8,
}

// CooperationBase returns the MBTI base cooperation inclination, 0.5 for
// unknown types.
func CooperationBase(mbti string) float64 {
	if v, ok := mbtiCooperation[strings.ToUpper(mbti)]; ok {
		return v
	}
	return 0.5
}

// DisasterBonus is the extra cooperation inclination granted during disasters
// by prosocial personality traits. The four components add up to 0.45, but the
// E and IN prefixes exclude each other, so no type receives more than 0.35.
func DisasterBonus(mbti string) float64 {
	m := strings.ToUpper(mbti)
	bonus := 0.0
	if IsDiplomat(m) {
		bonus += 0.15
	}
	if strings.HasPrefix(m, "E") {
		bonus += 0.10
	}
	if strings.HasSuffix(m, "J") {
		bonus += 0.10
	}
	if strings.HasPrefix(m, "IN") {
		bonus += 0.10
	}
	return bonus
}

// Trait predicates used by the reaction table and the conflict generator.

// IsDiplomat matches *NF* types.
func IsDiplomat(mbti string) bool {
	return len(mbti) == 4 && mbti[1] == 'N' && mbti[2] == 'F'
}

// IsSentinel matches IS*J and ES*J types.
func IsSentinel(mbti string) bool {
	return len(mbti) == 4 && mbti[1] == 'S' && mbti[3] == 'J'
}

// IsExplorer matches S-P types (ISTP, ISFP, ESTP, ESFP).
func IsExplorer(mbti string) bool {
	return len(mbti) == 4 && mbti[1] == 'S' && mbti[3] == 'P'
}

// IsRationalThinker matches *NT* types plus the pragmatic ST-P types.
func IsRationalThinker(mbti string) bool {
	if len(mbti) != 4 {
		return false
	}
	if mbti[1] == 'N' && mbti[2] == 'T' {
		return true
	}
	return mbti[1] == 'S' && mbti[2] == 'T' && mbti[3] == 'P'
}

// IsLeader matches the take-charge commander types.
func IsLeader(mbti string) bool {
	return mbti == "ENTJ" || mbti == "ESTJ"
}

// IsContrarian matches types prone to challenging authority under stress.
func IsContrarian(mbti string) bool {
	return IsExplorer(mbti) || mbti == "ENFP"
}

// IsIntrovert reports whether the type leads with I.
func IsIntrovert(mbti string) bool {
	return strings.HasPrefix(strings.ToUpper(mbti), "I")
}

// IsExtrovert reports whether the type leads with E.
func IsExtrovert(mbti string) bool {
	return strings.HasPrefix(strings.ToUpper(mbti), "E")
}
