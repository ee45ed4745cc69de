package grading

import (
	"errors"
	"sort"
)

// ErrItemNotFound indicates an edit referenced an item index that is not on
// the page. Deletes treat this as a benign no-op instead.
var ErrItemNotFound = errors.New("rubric item not found")

// PageRef addresses one page of one uploaded script. File and page
// identifiers stay strings end to end so serialized session state keeps
// uniform key types.
type PageRef struct {
	File string
	Page string
}

// PageGrading holds the per-page grading metadata a grader fills in while
// visiting pages.
type PageGrading struct {
	QuestionNum *int `json:"question_num"`
	TotalScore  *int `json:"total_score"`
}

// Record is the per-script grading metadata: the student number plus the
// visited pages.
type Record struct {
	StudentNum string                 `json:"student_num"`
	Pages      map[string]PageGrading `json:"pages"`
}

// Index is the combined in-memory store of rubric items and grading
// metadata for all scripts in a session. It owns all Item values; every
// accessor hands out copies, so callers can never mutate internals.
type Index struct {
	items     map[string]map[string][]Item
	nextIndex map[PageRef]int
	grading   map[string]*Record
}

// NewIndex returns an empty grading index.
func NewIndex() *Index {
	return &Index{
		items:     make(map[string]map[string][]Item),
		nextIndex: make(map[PageRef]int),
		grading:   make(map[string]*Record),
	}
}

// AddItem appends a rubric item to the page's ordered list. Item indices
// per page are strictly increasing and never reused, even after deletions.
func (x *Index) AddItem(ref PageRef, marks int, description string) (Item, error) {
	idx := x.nextIndex[ref] + 1
	item, err := newItem(marks, description, idx, ref)
	if err != nil {
		return Item{}, err
	}
	x.nextIndex[ref] = idx

	pages, ok := x.items[ref.File]
	if !ok {
		pages = make(map[string][]Item)
		x.items[ref.File] = pages
	}
	pages[ref.Page] = append(pages[ref.Page], item)
	return item, nil
}

// DeleteItem removes the item with the given index from the page. A missing
// item is a no-op: reactive UI layers re-render delete controls and can fire
// the same delete twice.
func (x *Index) DeleteItem(ref PageRef, itemIndex int) {
	pages, ok := x.items[ref.File]
	if !ok {
		return
	}
	list, ok := pages[ref.Page]
	if !ok {
		return
	}
	for i, item := range list {
		if item.ItemIndex == itemIndex {
			pages[ref.Page] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// EditItem replaces the item's marks and description in place, keeping its
// index and list position, and returns the new value.
func (x *Index) EditItem(ref PageRef, itemIndex, marks int, description string) (Item, error) {
	pages, ok := x.items[ref.File]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	list, ok := pages[ref.Page]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	for i, item := range list {
		if item.ItemIndex == itemIndex {
			edited, err := item.ApplyEdit(marks, description)
			if err != nil {
				return Item{}, err
			}
			list[i] = edited
			return edited, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// FindMatching scans every page for items whose current marks and
// description equal the given pre-edit value, excluding the page that was
// just edited. Results are ordered by file, page, then item index.
func (x *Index) FindMatching(marks int, description string, exclude PageRef) []Item {
	var matched []Item
	for _, file := range x.Files() {
		pages := x.items[file]
		pageKeys := make([]string, 0, len(pages))
		for page := range pages {
			pageKeys = append(pageKeys, page)
		}
		sort.Strings(pageKeys)
		for _, page := range pageKeys {
			if file == exclude.File && page == exclude.Page {
				continue
			}
			for _, item := range pages[page] {
				if item.Matches(marks, description) {
					matched = append(matched, item)
				}
			}
		}
	}
	return matched
}

// ItemsOn returns a copy of the page's ordered item list.
func (x *Index) ItemsOn(ref PageRef) []Item {
	pages, ok := x.items[ref.File]
	if !ok {
		return nil
	}
	list, ok := pages[ref.Page]
	if !ok {
		return nil
	}
	out := make([]Item, len(list))
	copy(out, list)
	return out
}

// Files returns the sorted identifiers of scripts carrying rubric items.
func (x *Index) Files() []string {
	files := make([]string, 0, len(x.items))
	for file := range x.items {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// EnsureFile registers a script in the index so it participates in grading
// even before the first rubric item lands on it.
func (x *Index) EnsureFile(file string) {
	if _, ok := x.items[file]; !ok {
		x.items[file] = make(map[string][]Item)
	}
	x.ensureRecord(file)
}

func (x *Index) ensureRecord(file string) *Record {
	record, ok := x.grading[file]
	if !ok {
		record = &Record{Pages: make(map[string]PageGrading)}
		x.grading[file] = record
	}
	return record
}

// SetStudentNumber upserts the student number for a script.
func (x *Index) SetStudentNumber(file, studentNum string) {
	x.ensureRecord(file).StudentNum = studentNum
}

// SetQuestionNumber upserts the question a page maps to.
func (x *Index) SetQuestionNumber(ref PageRef, question int) {
	record := x.ensureRecord(ref.File)
	page := record.Pages[ref.Page]
	page.QuestionNum = &question
	record.Pages[ref.Page] = page
}

// SetPageScore upserts the maximum score recorded for a page.
func (x *Index) SetPageScore(ref PageRef, score int) {
	record := x.ensureRecord(ref.File)
	page := record.Pages[ref.Page]
	page.TotalScore = &score
	record.Pages[ref.Page] = page
}

// StudentNumber returns the student number recorded for a script.
func (x *Index) StudentNumber(file string) string {
	if record, ok := x.grading[file]; ok {
		return record.StudentNum
	}
	return ""
}

// QuestionFor resolves the question number a page is mapped to, if any.
func (x *Index) QuestionFor(ref PageRef) (int, bool) {
	record, ok := x.grading[ref.File]
	if !ok {
		return 0, false
	}
	page, ok := record.Pages[ref.Page]
	if !ok || page.QuestionNum == nil {
		return 0, false
	}
	return *page.QuestionNum, true
}

// PageMeta returns a copy of the grading metadata for a page.
func (x *Index) PageMeta(ref PageRef) (PageGrading, bool) {
	record, ok := x.grading[ref.File]
	if !ok {
		return PageGrading{}, false
	}
	page, ok := record.Pages[ref.Page]
	if !ok {
		return PageGrading{}, false
	}
	return clonePageGrading(page), true
}

// RecordFor returns a copy of the full grading record for a script.
func (x *Index) RecordFor(file string) (Record, bool) {
	record, ok := x.grading[file]
	if !ok {
		return Record{}, false
	}
	pages := make(map[string]PageGrading, len(record.Pages))
	for page, meta := range record.Pages {
		pages[page] = clonePageGrading(meta)
	}
	return Record{StudentNum: record.StudentNum, Pages: pages}, true
}

// ItemsSnapshot returns a deep copy of the nested rubric item mapping,
// shaped for serialization (file -> page -> ordered list).
func (x *Index) ItemsSnapshot() map[string]map[string][]Item {
	snapshot := make(map[string]map[string][]Item, len(x.items))
	for file, pages := range x.items {
		pageCopy := make(map[string][]Item, len(pages))
		for page, list := range pages {
			items := make([]Item, len(list))
			copy(items, list)
			pageCopy[page] = items
		}
		snapshot[file] = pageCopy
	}
	return snapshot
}

// GradingSnapshot returns a deep copy of the grading metadata mapping.
func (x *Index) GradingSnapshot() map[string]Record {
	snapshot := make(map[string]Record, len(x.grading))
	for file := range x.grading {
		record, _ := x.RecordFor(file)
		snapshot[file] = record
	}
	return snapshot
}

// Restore replaces the index contents with previously serialized session
// state. Per-page counters resume above the highest restored item index so
// indices are never reused across a save/load cycle.
func (x *Index) Restore(items map[string]map[string][]Item, grading map[string]Record) {
	x.items = make(map[string]map[string][]Item, len(items))
	x.nextIndex = make(map[PageRef]int)
	x.grading = make(map[string]*Record, len(grading))

	for file, pages := range items {
		pageCopy := make(map[string][]Item, len(pages))
		for page, list := range pages {
			ref := PageRef{File: file, Page: page}
			restored := make([]Item, len(list))
			for i, item := range list {
				item.File = file
				item.Page = page
				restored[i] = item
				if item.ItemIndex > x.nextIndex[ref] {
					x.nextIndex[ref] = item.ItemIndex
				}
			}
			pageCopy[page] = restored
		}
		x.items[file] = pageCopy
	}

	for file, record := range grading {
		pages := make(map[string]PageGrading, len(record.Pages))
		for page, meta := range record.Pages {
			pages[page] = clonePageGrading(meta)
		}
		x.grading[file] = &Record{StudentNum: record.StudentNum, Pages: pages}
	}
}

func clonePageGrading(meta PageGrading) PageGrading {
	out := PageGrading{}
	if meta.QuestionNum != nil {
		q := *meta.QuestionNum
		out.QuestionNum = &q
	}
	if meta.TotalScore != nil {
		s := *meta.TotalScore
		out.TotalScore = &s
	}
	return out
}
