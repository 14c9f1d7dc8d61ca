package services

import (
	"strings"
)

// PhraseCategories are the categories the static table covers.
var PhraseCategories = []string{"greetings", "dining", "directions", "emergency"}

type phraseEntry struct {
	english       string
	translation   string
	pronunciation string
}

var phraseTable = map[string]map[string][]phraseEntry{
	"spanish": {
		"greetings":  {{"Hello", "Hola", "OH-lah"}, {"Thank you", "Gracias", "GRAH-see-ahs"}, {"Goodbye", "Adiós", "ah-DYOHS"}},
		"dining":     {{"The bill, please", "La cuenta, por favor", "lah KWEN-tah por fah-VOR"}, {"A table for two", "Una mesa para dos", "OO-nah MEH-sah PAH-rah dohs"}, {"Water, please", "Agua, por favor", "AH-gwah por fah-VOR"}},
		"directions": {{"Where is the station?", "¿Dónde está la estación?", "DOHN-deh es-TAH lah es-tah-SYOHN"}, {"Left", "Izquierda", "ees-KYEHR-dah"}, {"Right", "Derecha", "deh-REH-chah"}},
		"emergency":  {{"Help!", "¡Ayuda!", "ah-YOO-dah"}, {"Call a doctor", "Llame a un médico", "YAH-meh ah oon MEH-dee-koh"}, {"I am lost", "Estoy perdido", "es-TOY pehr-DEE-doh"}},
	},
	"french": {
		"greetings":  {{"Hello", "Bonjour", "bohn-ZHOOR"}, {"Thank you", "Merci", "mehr-SEE"}, {"Goodbye", "Au revoir", "oh ruh-VWAHR"}},
		"dining":     {{"The bill, please", "L'addition, s'il vous plaît", "lah-dee-SYOHN seel voo PLEH"}, {"A table for two", "Une table pour deux", "oon TAH-bluh poor duh"}, {"Water, please", "De l'eau, s'il vous plaît", "duh LOH seel voo PLEH"}},
		"directions": {{"Where is the station?", "Où est la gare ?", "oo eh lah GAHR"}, {"Left", "À gauche", "ah GOHSH"}, {"Right", "À droite", "ah DRWAHT"}},
		"emergency":  {{"Help!", "Au secours !", "oh suh-KOOR"}, {"Call a doctor", "Appelez un médecin", "ah-PLAY uhn mayd-SAN"}, {"I am lost", "Je suis perdu", "zhuh swee pehr-DOO"}},
	},
	"italian": {
		"greetings":  {{"Hello", "Ciao", "CHOW"}, {"Thank you", "Grazie", "GRAHT-see-eh"}, {"Goodbye", "Arrivederci", "ah-ree-veh-DEHR-chee"}},
		"dining":     {{"The bill, please", "Il conto, per favore", "eel KOHN-toh pehr fah-VOH-reh"}, {"A table for two", "Un tavolo per due", "oon TAH-voh-loh pehr DOO-eh"}, {"Water, please", "Acqua, per favore", "AHK-kwah pehr fah-VOH-reh"}},
		"directions": {{"Where is the station?", "Dov'è la stazione?", "doh-VEH lah staht-SYOH-neh"}, {"Left", "Sinistra", "see-NEE-strah"}, {"Right", "Destra", "DEH-strah"}},
		"emergency":  {{"Help!", "Aiuto!", "ah-YOO-toh"}, {"Call a doctor", "Chiami un medico", "KYAH-mee oon MEH-dee-koh"}, {"I am lost", "Mi sono perso", "mee SOH-noh PEHR-soh"}},
	},
	"german": {
		"greetings":  {{"Hello", "Hallo", "HAH-loh"}, {"Thank you", "Danke", "DAHN-kuh"}, {"Goodbye", "Auf Wiedersehen", "owf VEE-der-zay-en"}},
		"dining":     {{"The bill, please", "Die Rechnung, bitte", "dee REKH-noong BIT-tuh"}, {"A table for two", "Einen Tisch für zwei", "EYE-nen tish fuer tsvai"}, {"Water, please", "Wasser, bitte", "VAH-ser BIT-tuh"}},
		"directions": {{"Where is the station?", "Wo ist der Bahnhof?", "voh ist dehr BAHN-hohf"}, {"Left", "Links", "links"}, {"Right", "Rechts", "rekhts"}},
		"emergency":  {{"Help!", "Hilfe!", "HIL-fuh"}, {"Call a doctor", "Rufen Sie einen Arzt", "ROO-fen zee EYE-nen ahrtst"}, {"I am lost", "Ich habe mich verlaufen", "ikh HAH-buh mikh fer-LOW-fen"}},
	},
	"portuguese": {
		"greetings":  {{"Hello", "Olá", "oh-LAH"}, {"Thank you", "Obrigado", "oh-bree-GAH-doo"}, {"Goodbye", "Adeus", "ah-DEH-oosh"}},
		"dining":     {{"The bill, please", "A conta, por favor", "ah KOHN-tah poor fah-VOHR"}, {"A table for two", "Uma mesa para dois", "OO-mah MEH-zah PAH-rah doysh"}, {"Water, please", "Água, por favor", "AH-gwah poor fah-VOHR"}},
		"directions": {{"Where is the station?", "Onde fica a estação?", "OHN-deh FEE-kah ah esh-tah-SOWN"}, {"Left", "Esquerda", "esh-KEHR-dah"}, {"Right", "Direita", "dee-RAY-tah"}},
		"emergency":  {{"Help!", "Socorro!", "soo-KOH-hoo"}, {"Call a doctor", "Chame um médico", "SHAH-meh oom MEH-dee-koo"}, {"I am lost", "Estou perdido", "esh-TOH per-DEE-doo"}},
	},
	"japanese": {
		"greetings":  {{"Hello", "こんにちは", "kon-nee-chee-wah"}, {"Thank you", "ありがとうございます", "ah-ree-gah-toh go-zai-mas"}, {"Goodbye", "さようなら", "sah-yoh-nah-rah"}},
		"dining":     {{"The bill, please", "お会計お願いします", "oh-kai-keh oh-neh-gai-shi-mas"}, {"A table for two", "二人です", "fu-ta-ri des"}, {"Water, please", "お水をください", "oh-mi-zu oh ku-da-sai"}},
		"directions": {{"Where is the station?", "駅はどこですか？", "eki wa doko des ka"}, {"Left", "左", "hi-da-ri"}, {"Right", "右", "mi-gi"}},
		"emergency":  {{"Help!", "助けて！", "ta-su-ke-te"}, {"Call a doctor", "医者を呼んでください", "i-sha oh yon-de ku-da-sai"}, {"I am lost", "道に迷いました", "mi-chi ni ma-yoi-mash-ta"}},
	},
}

// destinationLanguages maps countries and major cities to a phrase table language.
var destinationLanguages = map[string]string{
	"spain": "spanish", "mexico": "spanish", "argentina": "spanish", "colombia": "spanish", "peru": "spanish",
	"madrid": "spanish", "barcelona": "spanish", "seville": "spanish", "mexico city": "spanish", "buenos aires": "spanish",
	"france": "french", "paris": "french", "lyon": "french", "nice": "french", "quebec": "french",
	"italy": "italian", "rome": "italian", "milan": "italian", "florence": "italian", "venice": "italian",
	"germany": "german", "austria": "german", "berlin": "german", "munich": "german", "vienna": "german",
	"portugal": "portuguese", "brazil": "portuguese", "lisbon": "portuguese", "porto": "portuguese", "rio de janeiro": "portuguese",
	"japan": "japanese", "tokyo": "japanese", "kyoto": "japanese", "osaka": "japanese",
}

// LanguageFor resolves a language name or a destination to a phrase table key.
// It returns the normalised input and false when nothing matches.
func LanguageFor(languageOrDestination string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(languageOrDestination))
	if _, ok := phraseTable[key]; ok {
		return key, true
	}
	if lang, ok := destinationLanguages[key]; ok {
		return lang, true
	}
	return key, false
}

// StaticPhrases returns phrases for a known language, limited to the given categories.
func StaticPhrases(language string, categories []string) ([]Phrase, bool) {
	table, ok := phraseTable[language]
	if !ok {
		return nil, false
	}
	if len(categories) == 0 {
		categories = PhraseCategories
	}

	out := []Phrase{}
	for _, cat := range categories {
		cat = strings.ToLower(cat)
		for _, e := range table[cat] {
			out = append(out, Phrase{
				Category:      cat,
				English:       e.english,
				Translation:   e.translation,
				Pronunciation: e.pronunciation,
			})
		}
	}
	return out, true
}

// FallbackPhrases is used when a language is unknown and the AI is unavailable:
// the English phrases are returned untranslated so the client keeps its layout.
func FallbackPhrases(categories []string) []Phrase {
	phrases, _ := StaticPhrases("spanish", categories)
	for i := range phrases {
		phrases[i].Translation = phrases[i].English
		phrases[i].Pronunciation = ""
	}
	return phrases
}
