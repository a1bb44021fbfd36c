package gitobj

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bctnry/depotview/pkg/depot/model"
)

func parseTimezoneOffset(s string) (int, error) {
	if s == "Z" { return 0, nil }
	if len(s) != 5 { return 0, fmt.Errorf("Invalid timezone offset string %q", s) }
	hour, err := strconv.Atoi(s[1:3])
	if err != nil { return 0, err }
	minute, err := strconv.Atoi(s[3:5])
	if err != nil { return 0, err }
	total := (hour * 60 + minute) * 60
	if s[0] == '-' { total = -total }
	return total, nil
}

var reAuthorTime = regexp.MustCompile(`^(.*<[^>]*>)\s*(\d+)\s+([+-]\d{4}|Z)\s*$`)

// "{name} <{email}> {timestamp} {tz}" -> "{name} <{email}>", time.
func parseAuthorTime(s string) (string, time.Time) {
	m := reAuthorTime.FindStringSubmatch(s)
	if m == nil { return strings.TrimSpace(s), time.Unix(0, 0).UTC() }
	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil { ts = 0 }
	t := time.Unix(ts, 0).UTC()
	offset, err := parseTimezoneOffset(m[3])
	if err == nil { t = t.In(time.FixedZone(m[3], offset)) }
	return strings.TrimSpace(m[1]), t
}

func ParseCommit(oid model.ObjectId, payload []byte) (*model.Commit, error) {
	source := string(payload)
	header, message, _ := strings.Cut(source, "\n\n")
	res := &model.Commit{
		Hash: oid,
		Parents: make([]model.ObjectId, 0),
		Message: message,
		Raw: payload,
	}
	for line := range strings.SplitSeq(header, "\n") {
		// continuation lines (gpgsig & mergetag bodies) start with a space.
		if strings.HasPrefix(line, " ") { continue }
		lineType, lineContent, _ := strings.Cut(line, " ")
		switch lineType {
		case "tree":
			res.TreeOid = model.ObjectId(strings.TrimSpace(lineContent))
		case "parent":
			res.Parents = append(res.Parents, model.ObjectId(strings.TrimSpace(lineContent)))
		case "author":
			res.Author, res.Timestamp = parseAuthorTime(lineContent)
		}
	}
	if !model.IsValidObjectId(string(res.TreeOid)) {
		return nil, fmt.Errorf("Malformed commit %s: no valid tree", oid)
	}
	return res, nil
}

func EncodeCommitPayload(tree model.ObjectId, parents []model.ObjectId, author string, t time.Time, message string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "tree %s\n", tree)
	for _, p := range parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	stamp := fmt.Sprintf("%s %d %s", author, t.Unix(), t.Format("-0700"))
	fmt.Fprintf(&b, "author %s\n", stamp)
	fmt.Fprintf(&b, "committer %s\n", stamp)
	b.WriteString("\n")
	b.WriteString(message)
	return []byte(b.String())
}

func NewCommit(tree model.ObjectId, parents []model.ObjectId, author string, t time.Time, message string) (*model.Commit, error) {
	payload := EncodeCommitPayload(tree, parents, author, t, message)
	oid := HashObject(model.COMMIT, payload, tree.IsSHA256())
	return ParseCommit(oid, payload)
}
