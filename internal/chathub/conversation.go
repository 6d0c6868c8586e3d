package chathub

import "strconv"

// ConversationID derives the identifier shared by both participants of a
// direct conversation. It is symmetric: ConversationID(a, b) == ConversationID(b, a).
//
// The pair is sorted and the first name is length-prefixed ("5:alice_bob"), so
// the split point is unambiguous for any usernames, including ones containing "_".
func ConversationID(userA, userB string) string {
	first, second := userA, userB
	if second < first {
		first, second = second, first
	}
	return strconv.Itoa(len(first)) + ":" + first + "_" + second
}
