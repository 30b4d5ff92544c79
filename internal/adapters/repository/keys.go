package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Key layout. One partition per user holds that user's tag rows and the
// endorsement ledger rows for those tags; one partition per endorser
// mirrors the ledger for reverse lookup; one partition per tag holds the
// bounded leaderboard.
//
//	USER#<owner>  | TAG#<tag>              -> tag record
//	USER#<owner>  | END#<tag>#<endorser>   -> endorsement
//	ACTOR#<actor> | END#<owner>#<tag>      -> endorsement (reverse path)
//	TAG#<tag>     | COUNT#<010d>#<owner>   -> leaderboard entry

const (
	tagSortPrefix = "TAG#"
	endSortPrefix = "END#"
	countPadWidth = 10
)

func userPartition(owner string) string { return "USER#" + owner }

func actorPartition(actor string) string { return "ACTOR#" + actor }

func tagPartition(tag string) string { return "TAG#" + tag }

func tagSort(tag string) string { return tagSortPrefix + tag }

func endorsementSort(tag, endorser string) string {
	return endSortPrefix + tag + "#" + endorser
}

func endorsedBySort(owner, tag string) string {
	return endSortPrefix + owner + "#" + tag
}

// rankKey builds the leaderboard sort key. Zero-padding the count keeps
// lexicographic order equal to numeric order, so an ascending scan
// starts at the minimum entry and a descending scan at the maximum.
func rankKey(count int, owner string) string {
	return fmt.Sprintf("COUNT#%0*d#%s", countPadWidth, count, owner)
}

// rankOwner extracts the owner id from a leaderboard sort key.
func rankOwner(sort string) string {
	parts := strings.SplitN(sort, "#", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}

// rankCount extracts the count from a leaderboard sort key.
func rankCount(sort string) int {
	parts := strings.SplitN(sort, "#", 3)
	if len(parts) != 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return n
}
