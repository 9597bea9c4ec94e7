// Package extract reads exercise texts out of the live Duolingo DOM.
// Each exercise type renders a different widget, so the user's answer is
// resolved by trying a fixed list of extraction strategies until one
// yields text.
package extract

import (
	"fmt"
	"strings"
)

// Evaluator runs a JS expression on the page and returns its string
// result. Satisfied by browser.Tab; tests substitute a map lookup.
type Evaluator func(js string) (string, error)

// Strategy extracts the user's answer for one exercise widget. Its JS
// returns "" when the widget is not on the page.
type Strategy struct {
	// Kind names the exercise type and feeds the audio-exercise check.
	Kind string
	JS   string
}

// Strategies is the resolution order. Word-bank widgets come before free
// text because a translate exercise can render both at once.
var Strategies = []Strategy{
	{Kind: "listenTap", JS: listenTapJS},
	{Kind: "tapComplete", JS: tapCompleteJS},
	{Kind: "judge", JS: judgeJS},
	{Kind: "completeReverseTranslation", JS: completeReverseTranslationJS},
	{Kind: "translate", JS: translateJS},
	{Kind: "partialReverseTranslate", JS: partialReverseTranslateJS},
}

// ResolveUserAnswer tries each strategy in order and returns the first
// non-empty answer together with the exercise kind that produced it.
func ResolveUserAnswer(eval Evaluator) (answer, kind string, err error) {
	for _, s := range Strategies {
		text, err := eval(s.JS)
		if err != nil {
			return "", "", fmt.Errorf("extract: %s: %w", s.Kind, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, s.Kind, nil
		}
	}
	return "", "", nil
}

// HintTokensJS reads the exercise prompt: Duolingo renders the sentence
// under test as a run of aria-hidden hint spans.
const HintTokensJS = `() => {
	const spans = document.querySelectorAll('span[aria-hidden="true"]');
	let phrase = '';
	spans.forEach(s => { phrase += s.textContent ?? ''; });
	return phrase;
}`

// SolutionJS reads the corrected answer from the blame panel shown after
// a wrong check. The solution text is the sibling after the panel title.
const SolutionJS = `() => {
	const title = document.querySelector('div[data-test="blame blame-incorrect"] h2');
	if (!title || !title.nextSibling) return '';
	return title.nextSibling.textContent || '';
}`

// listenTapJS joins the word-bank tokens the user tapped for a
// type-what-you-hear exercise.
const listenTapJS = `() => {
	const container = document.querySelector('[data-test="challenge challenge-listenTap"]');
	if (!container) return '';
	const tokens = Array.from(container.querySelectorAll('[data-test="challenge-tap-token-text"]'));
	return tokens.map(t => t.textContent).join(' ').replace(/\s+/g, ' ').trim();
}`

// tapCompleteJS joins the tokens the user placed in a tap-the-answer
// widget.
const tapCompleteJS = `() => {
	const container = document.querySelector('[data-test="challenge challenge-tapComplete"] > div > div:nth-of-type(2) div');
	if (!container) return '';
	const parts = Array.from(container.children).map(item => {
		const span = item.querySelector('span > div > span');
		return span ? span.textContent : item.textContent;
	});
	return parts.join('').replace(/\s+/g, ' ').trim();
}`

// judgeJS reads the selected option of a multiple-choice exercise.
const judgeJS = `() => {
	const group = document.querySelector('[role="radiogroup"]');
	if (!group) return '';
	const active = Array.from(group.children).find(el => el.ariaChecked === 'true');
	if (!active) return '';
	const text = active.querySelector('[data-test="challenge-judge-text"]');
	return text && text.textContent ? text.textContent.trim() : '';
}`

// completeReverseTranslationJS stitches typed inputs and fixed fragments
// of a fill-in-the-blanks sentence back together.
const completeReverseTranslationJS = `() => {
	const container = document.querySelector('[data-test="challenge challenge-completeReverseTranslation"]');
	if (!container) return '';
	const label = container.querySelector('label');
	if (!label || !label.children) return '';
	return Array.from(label.children).map(item => {
		const input = item.querySelector('input');
		if (input) return input.value;
		return item.innerText || '';
	}).join('');
}`

// translateJS prefers the word-bank tokens; a translate exercise without
// a word bank falls back to the free-text textarea.
const translateJS = `() => {
	const container = document.querySelector('[data-test="challenge challenge-translate"]');
	if (!container) return '';
	const buttons = Array.from(container.querySelectorAll('[style*="z-index:"]'));
	if (buttons.length > 0) {
		return buttons.map(b => b.innerText).join(' ').trim();
	}
	const textarea = container.querySelector('textarea');
	return textarea ? textarea.value.trim() : '';
}`

// partialReverseTranslateJS reads the editable completion spans. Styled
// spans belong to the fixed sentence part and are skipped unless
// contenteditable.
const partialReverseTranslateJS = `() => {
	const label = document.querySelector('[data-test="challenge challenge-partialReverseTranslate"] label');
	if (!label) return '';
	const spans = Array.from(label.querySelectorAll('span'))
		.filter(s => !s.getAttribute('class') || s.getAttribute('contenteditable'));
	return spans.map(s => s.innerText).join('');
}`
