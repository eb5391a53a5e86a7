package app

// GameName is advertised in match labels and score tokens.
const GameName = "2048"
