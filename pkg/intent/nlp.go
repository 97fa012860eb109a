package intent

import (
	"math"
	"sync"

	"github.com/jordigilh/intentrouter/pkg/types"
)

// maxCorpusSize bounds the TF-IDF document-frequency corpus so it cannot
// grow without bound over a long-running process ("TF-IDF
// must be bounded"; resolved as a cap of the last 500
// classified texts).
const maxCorpusSize = 500

// nlpClassifier is the "nlp" fusion source: a Naive Bayes classifier
// trained at construction time from each category's configured keywords,
// combined with a TF-IDF score over a bounded rolling corpus of
// previously seen request texts.
type nlpClassifier struct {
	mu sync.Mutex

	bundle *types.ConfigBundle

	wordCategoryCount map[string]map[string]int
	categoryTotalWords map[string]int
	categoryDocCount map[string]int
	vocabSize int

	corpus []string
	docFreq map[string]int
}

func newNLPClassifier(bundle *types.ConfigBundle) *nlpClassifier {
	c := &nlpClassifier{
		bundle: bundle,
		wordCategoryCount: make(map[string]map[string]int),
		categoryTotalWords: make(map[string]int),
		categoryDocCount: make(map[string]int),
		docFreq: make(map[string]int),
	}
	c.train()
	return c
}

func (c *nlpClassifier) train() {
	vocab := make(map[string]bool)
	for _, name := range c.bundle.CategoryOrder {
		cat := c.bundle.IntentCategories[name]
		c.categoryDocCount[name] = len(cat.Keywords)
		for _, kw := range cat.Keywords {
			for _, tok := range tokenize(kw) {
				vocab[tok] = true
				if c.wordCategoryCount[tok] == nil {
					c.wordCategoryCount[tok] = make(map[string]int)
				}
				c.wordCategoryCount[tok][name]++
				c.categoryTotalWords[name]++
			}
		}
	}
	c.vocabSize = len(vocab)
}

// observe folds text into the bounded TF-IDF corpus, evicting the oldest
// entry's contribution once the cap is exceeded.
func (c *nlpClassifier) observe(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	terms := uniqueTokens(tokenize(text))
	c.corpus = append(c.corpus, text)
	for _, t := range terms {
		c.docFreq[t]++
	}

	if len(c.corpus) > maxCorpusSize {
		oldest := c.corpus[0]
		c.corpus = c.corpus[1:]
		for _, t := range uniqueTokens(tokenize(oldest)) {
			c.docFreq[t]--
			if c.docFreq[t] <= 0 {
				delete(c.docFreq, t)
			}
		}
	}
}

// Score returns targetService -> score, each the max of the Bayes
// posterior and the TF-IDF signal for the category mapping to that
// service ("final per-service score = max over the two
// signals").
func (c *nlpClassifier) Score(text string) map[string]float64 {
	bayes := c.bayesScores(text)
	tfidf := c.tfidfScores(text)

	out := make(map[string]float64)
	for _, name := range c.bundle.CategoryOrder {
		target := c.bundle.IntentCategories[name].TargetService
		if target == "" {
			continue
		}
		score := math.Max(bayes[name], tfidf[name])
		if existing, ok := out[target]; !ok || score > existing {
			out[target] = score
		}
	}
	return out
}

func (c *nlpClassifier) bayesScores(text string) map[string]float64 {
	tokens := tokenize(text)
	totalDocs := 0
	for _, n := range c.categoryDocCount {
		totalDocs += n
	}
	if totalDocs == 0 {
		return map[string]float64{}
	}

	logScores := make(map[string]float64, len(c.bundle.CategoryOrder))
	for _, name := range c.bundle.CategoryOrder {
		prior := float64(c.categoryDocCount[name]+1) / float64(totalDocs+len(c.bundle.CategoryOrder))
		logP := math.Log(prior)
		denom := float64(c.categoryTotalWords[name] + c.vocabSize)
		for _, tok := range tokens {
			count := c.wordCategoryCount[tok][name]
			logP += math.Log(float64(count+1) / denom)
		}
		logScores[name] = logP
	}
	return softmax(logScores)
}

func softmax(logScores map[string]float64) map[string]float64 {
	if len(logScores) == 0 {
		return logScores
	}
	max := math.Inf(-1)
	for _, v := range logScores {
		if v > max {
			max = v
		}
	}
	var sum float64
	exp := make(map[string]float64, len(logScores))
	for name, v := range logScores {
		e := math.Exp(v - max)
		exp[name] = e
		sum += e
	}
	out := make(map[string]float64, len(logScores))
	for name, e := range exp {
		out[name] = e / sum
	}
	return out
}

func (c *nlpClassifier) tfidfScores(text string) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := tokenize(text)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	totalDocs := len(c.corpus)
	if totalDocs == 0 {
		totalDocs = 1
	}

	out := make(map[string]float64, len(c.bundle.CategoryOrder))
	for _, name := range c.bundle.CategoryOrder {
		cat := c.bundle.IntentCategories[name]
		if len(cat.Keywords) == 0 {
			continue
		}
		var sum float64
		for _, kw := range cat.Keywords {
			for _, tok := range tokenize(kw) {
				count, seen := tf[tok]
				if !seen {
					continue
				}
				idf := math.Log(float64(totalDocs+1)/float64(c.docFreq[tok]+1)) + 1
				sum += float64(count) * idf
			}
		}
		score := sum / float64(len(cat.Keywords))
		if score > 1 {
			score = 1
		}
		out[name] = score
	}
	return out
}
