package games

import (
	"math/rand"
	"strings"
)

type quizEntry struct {
	Question string
	Choices  []string
	Answer   string
}

var quizBank = []quizEntry{
	{"What is the largest planet in our solar system?", []string{"Earth", "Saturn", "Jupiter", "Neptune"}, "jupiter"},
	{"What is the chemical symbol for gold?", []string{"Au", "Ag", "Gd", "Go"}, "au"},
	{"How many continents are there?", []string{"5", "6", "7", "8"}, "7"},
	{"What is the capital of Japan?", []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"}, "tokyo"},
	{"Which ocean is the largest?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, "pacific"},
	{"What gas do plants absorb from the atmosphere?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, "carbon dioxide"},
	{"How many sides does a hexagon have?", []string{"5", "6", "7", "8"}, "6"},
	{"What is the smallest prime number?", []string{"0", "1", "2", "3"}, "2"},
	{"Which planet is known as the red planet?", []string{"Venus", "Mars", "Jupiter", "Mercury"}, "mars"},
	{"What is the hardest natural substance on earth?", []string{"Quartz", "Steel", "Diamond", "Granite"}, "diamond"},
	{"In which country were the Olympic Games invented?", []string{"Italy", "Greece", "Egypt", "France"}, "greece"},
	{"What is the longest river in the world?", []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, "nile"},
	{"How many strings does a standard guitar have?", []string{"4", "5", "6", "7"}, "6"},
	{"What is the freezing point of water in celsius?", []string{"-1", "0", "1", "32"}, "0"},
	{"Which animal is known as the king of the jungle?", []string{"Tiger", "Elephant", "Lion", "Gorilla"}, "lion"},
}

// Quiz is a single trivia question open to everyone in the conversation.
// One attempt settles it: right or wrong, the question is spent.
type Quiz struct {
	Question string
	Choices  []string
	Answer   string
	Attempts int
	Done     bool
}

// NewQuiz draws a random question from the built-in bank.
func NewQuiz() *Quiz {
	e := quizBank[rand.Intn(len(quizBank))]
	return &Quiz{Question: e.Question, Choices: e.Choices, Answer: e.Answer}
}

// NewQuizFixed creates a quiz over a known question. Used by tests.
func NewQuizFixed(question, answer string, choices ...string) *Quiz {
	return &Quiz{Question: question, Choices: choices, Answer: strings.ToLower(answer)}
}

// Try checks an answer and ends the quiz regardless of the result.
// Matching ignores case and surrounding space.
func (q *Quiz) Try(answer string) (Outcome, error) {
	if q.Done {
		return Continue, ErrGameOver
	}
	q.Attempts++
	q.Done = true
	if strings.EqualFold(strings.TrimSpace(answer), q.Answer) {
		return Win, nil
	}
	return Loss, nil
}

// Reveal ends the quiz and returns the answer.
func (q *Quiz) Reveal() string {
	q.Done = true
	return q.Answer
}
