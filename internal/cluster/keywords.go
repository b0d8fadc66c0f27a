package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const keywordsPerLabel = 3

var wordRe = regexp.MustCompile(`[a-z][a-z'-]+`)

// Labels derives a display label for each cluster from the concatenated text
// of its members: the top TF-IDF terms joined with " / " and title-cased.
// clusterTexts maps cluster id to the combined member text.
func Labels(clusterTexts map[int]string) map[int]string {
	ids := make([]int, 0, len(clusterTexts))
	for id := range clusterTexts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	// Document frequency across clusters.
	df := make(map[string]int)
	termCounts := make(map[int]map[string]int, len(ids))
	totals := make(map[int]int, len(ids))
	for _, id := range ids {
		counts := countTerms(clusterTexts[id])
		termCounts[id] = counts
		for term, n := range counts {
			df[term]++
			totals[id] += n
		}
	}

	n := float64(len(ids))
	labels := make(map[int]string, len(ids))
	for _, id := range ids {
		counts := termCounts[id]
		if len(counts) == 0 {
			labels[id] = "Untitled Topic"
			continue
		}

		type scored struct {
			term  string
			score float64
		}
		ranked := make([]scored, 0, len(counts))
		for term, count := range counts {
			tf := float64(count) / float64(totals[id])
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			ranked = append(ranked, scored{term: term, score: tf * idf})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].term < ranked[j].term
		})

		top := make([]string, 0, keywordsPerLabel)
		for _, s := range ranked {
			top = append(top, titleCase(s.term))
			if len(top) == keywordsPerLabel {
				break
			}
		}
		labels[id] = strings.Join(top, " / ")
	}
	return labels
}

// GroupTexts concatenates segment texts by cluster label.
func GroupTexts(texts []string, labels []int) map[int]string {
	grouped := make(map[int]string)
	for i, text := range texts {
		if i >= len(labels) {
			break
		}
		c := labels[i]
		if grouped[c] != "" {
			grouped[c] += " "
		}
		grouped[c] += text
	}
	return grouped
}

func countTerms(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] || len(w) < 3 {
			continue
		}
		counts[w]++
	}
	return counts
}

func titleCase(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
