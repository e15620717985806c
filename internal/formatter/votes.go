package formatter

import "encoding/json"

// ExtractVotes totals the votes in a special-ballot payload. The portal is
// not consistent about the response shape: the same endpoint may return a
// bare number, a list of result rows, a single row object, or an object
// wrapping the rows under "resultados".
func ExtractVotes(payload json.RawMessage) int {
	if len(payload) == 0 {
		return 0
	}

	var number float64
	if err := json.Unmarshal(payload, &number); err == nil {
		return int(number)
	}

	type voteRow struct {
		Votes int `json:"votos"`
	}

	var rows []voteRow
	if err := json.Unmarshal(payload, &rows); err == nil {
		total := 0
		for _, row := range rows {
			total += row.Votes
		}
		return total
	}

	var wrapped struct {
		Results []voteRow `json:"resultados"`
		Votes   *int      `json:"votos"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil {
		if len(wrapped.Results) > 0 {
			total := 0
			for _, row := range wrapped.Results {
				total += row.Votes
			}
			return total
		}
		if wrapped.Votes != nil {
			return *wrapped.Votes
		}
	}

	return 0
}
