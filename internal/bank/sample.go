package bank

import "trivia-quiz-service/internal/domain"

// GeneralKnowledge is the category the sample bank designates as fallback.
const GeneralKnowledge = "gk"

// SampleQuestions is a small bundled bank for local runs and tests.
// Ids repeat across categories on purpose; only (category, id) is unique.
func SampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		GeneralKnowledge: {
			{ID: "001", Difficulty: domain.DifficultyEasy, Prompt: "What is the capital of France?", Options: []string{"Berlin", "Paris", "Madrid", "Rome"}, CorrectIndex: 1},
			{ID: "002", Difficulty: domain.DifficultyEasy, Prompt: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, CorrectIndex: 2},
			{ID: "003", Difficulty: domain.DifficultyMedium, Prompt: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectIndex: 3},
			{ID: "004", Difficulty: domain.DifficultyMedium, Prompt: "Which country is known as the Land of the Rising Sun?", Options: []string{"China", "Japan", "Korea", "Thailand"}, CorrectIndex: 1},
			{ID: "005", Difficulty: domain.DifficultyHard, Prompt: "Which ancient wonder stood in Alexandria?", Options: []string{"Hanging Gardens", "Colossus", "Lighthouse", "Mausoleum"}, CorrectIndex: 2, Explanation: "The Pharos lighthouse stood on the island of Pharos."},
		},
		"science": {
			{ID: "001", Difficulty: domain.DifficultyEasy, Prompt: "What is the chemical symbol for water?", Options: []string{"H2O", "CO2", "O2", "NaCl"}, CorrectIndex: 0},
			{ID: "002", Difficulty: domain.DifficultyMedium, Prompt: "What gas do plants absorb from the atmosphere?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, CorrectIndex: 2},
		},
		"animals": {
			{ID: "001", Difficulty: domain.DifficultyEasy, Prompt: "How many legs does a spider have?", Options: []string{"6", "8", "10", "12"}, CorrectIndex: 1},
			{ID: "002", Difficulty: domain.DifficultyMedium, Prompt: "What is the largest mammal?", Options: []string{"Elephant", "Blue whale", "Giraffe", "Orca"}, CorrectIndex: 1},
			{ID: "003", Difficulty: domain.DifficultyHard, Prompt: "Which animal has three hearts?", Options: []string{"Octopus", "Shark", "Frog", "Bat"}, CorrectIndex: 0, Points: 25},
		},
		"history": {
			{ID: "001", Difficulty: domain.DifficultyEasy, Prompt: "In which year did World War II end?", Options: []string{"1943", "1944", "1945", "1946"}, CorrectIndex: 2},
			{ID: "002", Difficulty: domain.DifficultyMedium, Prompt: "Who painted the Mona Lisa?", Options: []string{"Van Gogh", "Picasso", "Da Vinci", "Monet"}, CorrectIndex: 2},
			{ID: "003", Difficulty: domain.DifficultyHard, Prompt: "Which empire built Machu Picchu?", Options: []string{"Aztec", "Maya", "Inca", "Olmec"}, CorrectIndex: 2},
		},
	}
}
