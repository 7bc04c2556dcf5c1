package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const maxVocabularyTerms = 1000

// tfidfCosine vectorizes exactly two documents with unigram+bigram TF-IDF
// (English stop words removed, vocabulary capped) and returns the cosine of
// the two vectors.
func tfidfCosine(docA, docB string) (float64, error) {
	termsA := extractTerms(docA)
	termsB := extractTerms(docB)
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0, fmt.Errorf("no indexable terms after stop word removal")
	}

	countsA := termCounts(termsA)
	countsB := termCounts(termsB)

	vocabulary := buildVocabulary(countsA, countsB)

	vecA := make([]float64, len(vocabulary))
	vecB := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		df := 0
		if countsA[term] > 0 {
			df++
		}
		if countsB[term] > 0 {
			df++
		}
		// Smoothed inverse document frequency over the two-document corpus.
		idf := math.Log(3.0/float64(1+df)) + 1
		vecA[i] = float64(countsA[term]) * idf
		vecB[i] = float64(countsB[term]) * idf
	}

	return cosine(vecA, vecB)
}

// extractTerms tokenizes an already-normalized document into unigrams and
// bigrams, dropping English stop words and single-character tokens.
func extractTerms(doc string) []string {
	fields := strings.Fields(doc)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// buildVocabulary merges the two documents' terms, keeping at most
// maxVocabularyTerms ranked by combined frequency, ties alphabetical.
func buildVocabulary(countsA, countsB map[string]int) []string {
	combined := make(map[string]int, len(countsA)+len(countsB))
	for t, c := range countsA {
		combined[t] += c
	}
	for t, c := range countsB {
		combined[t] += c
	}

	terms := make([]string, 0, len(combined))
	for t := range combined {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if combined[terms[i]] != combined[terms[j]] {
			return combined[terms[i]] > combined[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > maxVocabularyTerms {
		terms = terms[:maxVocabularyTerms]
	}
	return terms
}

func cosine(a, b []float64) (float64, error) {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0, nil
	}
	if sim > 1 {
		return 1, nil
	}
	return sim, nil
}
