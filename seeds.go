package qcmpipeline

// BiomedicalSeeds holds the hand-authored reference sentences per module.
// Their averaged embedding is the module's centroid, the semantic anchor the
// biomedical scorer compares candidates against.
var BiomedicalSeeds = map[string][]string{
	"bases_physio": {
		"La cellule est l'unité fonctionnelle de l'organisme.",
		"L'homéostasie maintient l'équilibre interne.",
		"Le pH sanguin normal est de 7.35 à 7.45.",
	},
	"respiratoire": {
		"La PEEP améliore l'oxygénation en ventilation mécanique.",
		"Le rapport PaO2/FiO2 évalue la fonction respiratoire.",
		"La capnographie mesure l'EtCO2 expiré.",
	},
	"cardio": {
		"Le débit cardiaque est le produit de la fréquence par le volume d'éjection.",
		"La pression artérielle moyenne dépend du débit et des résistances vasculaires.",
		"Le choc septique nécessite un remplissage vasculaire et des vasopresseurs.",
	},
	"neuro": {
		"La pression intracrânienne normale est inférieure à 15 mmHg.",
		"Le score de Glasgow évalue le niveau de conscience.",
		"La pression de perfusion cérébrale doit être maintenue au-dessus de 60 mmHg.",
	},
	"pharma_generaux": {
		"Le propofol est un agent anesthésique intraveineux à action rapide.",
		"L'étomidate est indiqué en cas d'instabilité hémodynamique.",
		"La kétamine préserve le réflexe laryngé et la ventilation spontanée.",
	},
	"pharma_locaux": {
		"La lidocaïne est un anesthésique local de type amide.",
		"La bupivacaïne a une durée d'action prolongée.",
		"La toxicité des anesthésiques locaux se manifeste par des signes neurologiques puis cardiovasculaires.",
	},
	"pharma_opioides": {
		"La morphine est un opioïde fort de palier 3 selon l'OMS.",
		"Le fentanyl est un opioïde synthétique à action rapide.",
		"La naloxone est l'antidote des opioïdes.",
	},
	"pharma_curares": {
		"Le rocuronium est un curare non dépolarisant à action intermédiaire.",
		"Le sugammadex antagonise spécifiquement les curares aminostéroïdiens.",
		"La décurarisation nécessite la récupération du bloc neuromusculaire.",
	},
	"alr": {
		"La rachianesthésie produit un bloc sensitif, moteur et sympathique.",
		"La péridurale permet une analgésie prolongée.",
		"Les blocs nerveux périphériques ciblent les plexus et nerfs.",
	},
	"ventilation": {
		"L'intubation orotrachéale sécurise les voies aériennes.",
		"Le masque laryngé est une alternative à l'intubation.",
		"La capnographie confirme l'intubation trachéale.",
	},
	"transfusion": {
		"Les culots globulaires rouges augmentent la capacité de transport en oxygène.",
		"Le plasma frais congelé apporte des facteurs de coagulation.",
		"Le ROTEM évalue l'hémostase en temps réel.",
	},
	"reanimation": {
		"Le sepsis est une défaillance d'organe secondaire à une infection.",
		"Le SDRA se définit par un rapport PaO2/FiO2 inférieur à 300.",
		"Le polytrauma nécessite une prise en charge multidisciplinaire.",
	},
	"douleur": {
		"L'échelle visuelle analogique évalue l'intensité douloureuse.",
		"La PCA permet au patient de gérer son analgésie.",
		"Les antalgiques sont classés en 3 paliers selon l'OMS.",
	},
	"infectio": {
		"L'antibioprophylaxie prévient les infections du site opératoire.",
		"L'asepsie chirurgicale réduit la contamination microbienne.",
		"La préparation cutanée doit être rigoureuse.",
	},
	"monitorage": {
		"La SpO2 mesure la saturation en oxygène par photopléthysmographie.",
		"Le BIS quantifie la profondeur de l'anesthésie.",
		"La pression artérielle invasive permet un monitoring continu.",
	},
	"pediatrie": {
		"Les enfants ont des besoins pharmacologiques spécifiques.",
		"Les personnes âgées présentent une polypathologie.",
		"La grossesse modifie la pharmacocinétique des médicaments.",
	},
	"legislation": {
		"Le consentement éclairé est obligatoire avant tout acte anesthésique.",
		"La traçabilité des actes est une obligation réglementaire.",
		"La vigilance sanitaire signale les événements indésirables.",
	},
	ModuleUnknown: {
		"L'anesthésie-réanimation est une spécialité médicale.",
		"La formation IADE dure 24 mois.",
		"La pratique professionnelle suit des recommandations.",
	},
}
