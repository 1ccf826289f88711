// pkg/i18n/catalog.go
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Key identifies a translatable string.
type Key string

// Interface strings
const (
	AppName    Key = "appName"
	Start      Key = "start"
	Pause      Key = "pause"
	Reset      Key = "reset"
	Speed      Key = "speed"
	Display    Key = "display"
	ToggleHUD  Key = "toggleGUI"
	FullScreen Key = "fullScreen"
	SaveLoad   Key = "saveLoad"
	Save       Key = "save"
	Load       Key = "load"
	Language   Key = "language"
	SaveState  Key = "saveState"
	LoadState  Key = "loadState"
	BadFile    Key = "badFile"
	Paused     Key = "paused"
	Running    Key = "running"
)

// Status labels
const (
	AvgSpeed           Key = "avgSpeed"
	AbsObjectCollision Key = "absObjectCollision"
	ObjectCollision    Key = "objectCollision"
	AbsWallCollision   Key = "absWallCollision"
	WallCollision      Key = "wallCollision"
	SimWidth           Key = "simWidth"
	SimHeight          Key = "simHeight"
	Momentum           Key = "momentum"
	KineticEnergy      Key = "kineticEnergy"
	TickCount          Key = "tick"
	BodyCount          Key = "bodies"
)

var english = map[Key]string{
	AppName:            "Elastic Collisions",
	Start:              "Start",
	Pause:              "Pause",
	Reset:              "Reset",
	Speed:              "Tick delay (ms)",
	Display:            "Display",
	ToggleHUD:          "Toggle status panel",
	FullScreen:         "Full screen",
	SaveLoad:           "Save / Load",
	Save:               "Save",
	Load:               "Load",
	Language:           "Language",
	SaveState:          "State saved",
	LoadState:          "State loaded",
	BadFile:            "Not a simulation save file",
	Paused:             "Paused",
	Running:            "Running",
	AvgSpeed:           "Average speed",
	AbsObjectCollision: "Object collisions",
	ObjectCollision:    "Object collisions per second",
	AbsWallCollision:   "Wall collisions",
	WallCollision:      "Wall collisions per second",
	SimWidth:           "Field width",
	SimHeight:          "Field height",
	Momentum:           "Total momentum",
	KineticEnergy:      "Kinetic energy",
	TickCount:          "Tick",
	BodyCount:          "Bodies",
}

var french = map[Key]string{
	AppName:            "Collisions élastiques",
	Start:              "Démarrer",
	Pause:              "Pause",
	Reset:              "Réinitialiser",
	Speed:              "Délai par pas (ms)",
	Display:            "Affichage",
	ToggleHUD:          "Afficher le panneau d'état",
	FullScreen:         "Plein écran",
	SaveLoad:           "Enregistrer / Charger",
	Save:               "Enregistrer",
	Load:               "Charger",
	Language:           "Langue",
	SaveState:          "État enregistré",
	LoadState:          "État chargé",
	BadFile:            "Ce n'est pas un fichier de simulation",
	Paused:             "En pause",
	Running:            "En cours",
	AvgSpeed:           "Vitesse moyenne",
	AbsObjectCollision: "Collisions entre objets",
	ObjectCollision:    "Collisions entre objets par seconde",
	AbsWallCollision:   "Collisions avec les parois",
	WallCollision:      "Collisions avec les parois par seconde",
	SimWidth:           "Largeur du champ",
	SimHeight:          "Hauteur du champ",
	Momentum:           "Quantité de mouvement totale",
	KineticEnergy:      "Énergie cinétique",
	TickCount:          "Pas",
	BodyCount:          "Corps",
}

var chinese = map[Key]string{
	AppName:            "弹性碰撞",
	Start:              "开始",
	Pause:              "暂停",
	Reset:              "重置",
	Speed:              "步长延迟（毫秒）",
	Display:            "显示",
	ToggleHUD:          "切换状态面板",
	FullScreen:         "全屏",
	SaveLoad:           "保存 / 载入",
	Save:               "保存",
	Load:               "载入",
	Language:           "语言",
	SaveState:          "状态已保存",
	LoadState:          "状态已载入",
	BadFile:            "不是模拟存档文件",
	Paused:             "已暂停",
	Running:            "运行中",
	AvgSpeed:           "平均速度",
	AbsObjectCollision: "物体碰撞次数",
	ObjectCollision:    "每秒物体碰撞",
	AbsWallCollision:   "墙壁碰撞次数",
	WallCollision:      "每秒墙壁碰撞",
	SimWidth:           "场地宽度",
	SimHeight:          "场地高度",
	Momentum:           "总动量",
	KineticEnergy:      "动能",
	TickCount:          "步数",
	BodyCount:          "物体数",
}

// Supported lists the available languages, English first as the fallback.
var Supported = []language.Tag{language.English, language.French, language.Chinese}

var tables = map[language.Tag]map[Key]string{
	language.English: english,
	language.French:  french,
	language.Chinese: chinese,
}

func buildCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, table := range tables {
		for key, msg := range table {
			if err := b.SetString(tag, string(key), msg); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
