// Package algorithms assembles ready-made Graph recipes on top of the
// mappers/reducers/joiners packages: word counting, TF-IDF inverted
// indexing, pointwise mutual information, and a Yandex-Maps-style
// average speed aggregation. Ported from compgraph's original Python
// algorithm library, expressed via this module's Graph builder.
package algorithms

import (
	"math"
	"time"
	"unicode/utf8"

	cg "github.com/rowkit/compgraph"
	"github.com/rowkit/compgraph/joiners"
	"github.com/rowkit/compgraph/mappers"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/reducers"
	"github.com/rowkit/compgraph/row"
)

func apply(columns []string, result string, f func(args []interface{}) interface{}) mappers.Apply {
	return mappers.Apply{Columns: columns, ResultColumn: result, Func: f}
}

func inner() joiners.Inner { return joiners.Inner{Suffixes: ops.NewSuffixes()} }

// WordCount builds a graph counting occurrences of each word in
// textColumn, sorted ascending by (countColumn, textColumn).
func WordCount(inputName, textColumn, countColumn string) *cg.Graph {
	return cg.FromIter(inputName).
		Map(mappers.FilterPunctuation{Column: textColumn}).
		Map(mappers.LowerCase{Column: textColumn}).
		Map(mappers.Split{Column: textColumn}).
		Sort([]string{textColumn}).
		Reduce(reducers.Count{Column: countColumn}, []string{textColumn}).
		Sort([]string{countColumn, textColumn})
}

// InvertedIndex builds a graph computing TF-IDF for every (word,
// document) pair, keeping the top 3 documents per word by score.
func InvertedIndex(inputName, docColumn, textColumn, resultColumn string) *cg.Graph {
	splitWords := cg.FromIter(inputName).
		Map(mappers.FilterPunctuation{Column: textColumn}).
		Map(mappers.LowerCase{Column: textColumn}).
		Map(mappers.Split{Column: textColumn})

	docCount := cg.FromIter(inputName).
		Sort([]string{docColumn}).
		Reduce(reducers.First{}, []string{docColumn}).
		Reduce(reducers.Count{Column: "num_docs"}, nil)

	countIDF := splitWords.Sort([]string{textColumn, docColumn}).
		Reduce(reducers.First{}, []string{textColumn, docColumn}).
		Reduce(reducers.Count{Column: "num_words_for_doc"}, []string{textColumn}).
		Join(inner(), docCount, nil).
		Map(apply([]string{"num_docs", "num_words_for_doc"}, "idf", func(a []interface{}) interface{} {
			return math.Log(toF(a[0]) / toF(a[1]))
		}))

	tfIdf := splitWords.Sort([]string{docColumn}).
		Reduce(reducers.TermFrequency{WordsColumn: textColumn, ResultColumn: "tf"}, []string{docColumn}).
		Sort([]string{textColumn}).
		Join(inner(), countIDF, []string{textColumn}).
		Map(apply([]string{"tf", "idf"}, resultColumn, func(a []interface{}) interface{} {
			return toF(a[0]) * toF(a[1])
		})).
		Map(mappers.Project{Columns: []string{textColumn, docColumn, resultColumn}}).
		Reduce(reducers.TopN{Column: resultColumn, N: 3}, []string{textColumn})

	return tfIdf
}

// PMI builds a graph giving, for every document, the pointwise mutual
// information against the corpus of each word longer than four characters
// that occurs at least twice in that document. Rows are ordered by the
// word's first occurrence in the input, not ranked by PMI.
func PMI(inputName, docColumn, textColumn, resultColumn string) *cg.Graph {
	splitWords := cg.FromIter(inputName).
		Map(mappers.FilterPunctuation{Column: textColumn}).
		Map(mappers.LowerCase{Column: textColumn}).
		Map(mappers.Split{Column: textColumn}).
		Map(mappers.Filter{Condition: func(r row.Row) (bool, error) {
			v, err := r.MustGet(textColumn)
			if err != nil {
				return false, err
			}
			s, _ := v.(string)
			return utf8.RuneCountInString(s) > 4, nil
		}})

	indexedWords := splitWords.Reduce(reducers.Index{Column: "index"}, nil)

	filteredCount := indexedWords.Sort([]string{textColumn, docColumn}).
		Reduce(reducers.Count{Column: "num_words_for_doc"}, []string{textColumn, docColumn}).
		Map(mappers.Filter{Condition: func(r row.Row) (bool, error) {
			v, err := r.MustGet("num_words_for_doc")
			if err != nil {
				return false, err
			}
			return toF(v) >= 2, nil
		}})

	filteredTable := indexedWords.Sort([]string{textColumn, docColumn}).
		Join(inner(), filteredCount, []string{textColumn, docColumn}).
		Map(mappers.Project{Columns: []string{textColumn, docColumn}})

	tf := filteredTable.Sort([]string{docColumn}).
		Reduce(reducers.TermFrequency{WordsColumn: textColumn, ResultColumn: "tf"}, []string{docColumn})

	numWordsForDoc := filteredTable.Sort([]string{textColumn, docColumn}).
		Reduce(reducers.Count{Column: "num_words_for_doc"}, []string{textColumn})

	addedAllNumber := numWordsForDoc.Join(
		inner(),
		filteredTable.Reduce(reducers.Count{Column: "all_numb_words"}, nil),
		nil,
	)

	addedPMIMetric := addedAllNumber.
		Join(inner(), tf.Sort([]string{textColumn}), []string{textColumn}).
		Map(apply([]string{"num_words_for_doc", "all_numb_words", "tf"}, resultColumn, func(a []interface{}) interface{} {
			nwfd, anw, tfInd := toF(a[0]), toF(a[1]), toF(a[2])
			return math.Log(tfInd / (nwfd / anw))
		})).
		Map(mappers.Project{Columns: []string{textColumn, docColumn, resultColumn}}).
		Sort([]string{docColumn, textColumn})

	sortedWords := indexedWords.Sort([]string{docColumn, textColumn}).
		Reduce(reducers.First{}, []string{docColumn, textColumn})

	pmi := addedPMIMetric.
		Join(inner(), sortedWords, []string{docColumn, textColumn}).
		Sort([]string{"index"}).
		Map(mappers.Project{Columns: []string{docColumn, textColumn, resultColumn}})

	return pmi
}

// AverageSpeed builds a graph measuring average speed in km/h by
// weekday and hour, from an edge-length stream and an edge-traversal
// (enter/leave time) stream.
func AverageSpeed(
	inputTimeName, inputLengthName string,
	enterTimeColumn, leaveTimeColumn, edgeIDColumn, startCoordColumn, endCoordColumn string,
	weekdayResultColumn, hourResultColumn, speedResultColumn string,
) *cg.Graph {
	length := cg.FromIter(inputLengthName).
		Map(mappers.HaversineDist{Start: startCoordColumn, End: endCoordColumn, Column: "length"}).
		Map(mappers.Project{Columns: []string{edgeIDColumn, "length"}}).
		Sort([]string{edgeIDColumn})

	duration := cg.FromIter(inputTimeName).
		Map(mappers.StringToDateTime{Columns: []string{enterTimeColumn, leaveTimeColumn}}).
		Map(apply([]string{enterTimeColumn, leaveTimeColumn}, "duration", func(a []interface{}) interface{} {
			t1, t2 := a[0].(time.Time), a[1].(time.Time)
			return t2.Sub(t1).Hours()
		})).
		Map(apply([]string{enterTimeColumn}, hourResultColumn, func(a []interface{}) interface{} {
			return a[0].(time.Time).Hour()
		})).
		Map(apply([]string{enterTimeColumn}, weekdayResultColumn, func(a []interface{}) interface{} {
			return a[0].(time.Time).Format("Mon")
		})).
		Map(mappers.Remove{Columns: []string{enterTimeColumn, leaveTimeColumn}}).
		Sort([]string{edgeIDColumn})

	merged := duration.
		Join(inner(), length, []string{edgeIDColumn}).
		Sort([]string{weekdayResultColumn, hourResultColumn}).
		Reduce(reducers.MeanSpeed{DistColumn: "length", TimeColumn: "duration", ResultColumn: speedResultColumn},
			[]string{weekdayResultColumn, hourResultColumn}).
		Map(mappers.Remove{Columns: []string{"length", "duration"}})

	return merged
}

func toF(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
