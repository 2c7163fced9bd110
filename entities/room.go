package entities

type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // 等待玩家准备
	RoomStatusPlaying  RoomStatus = "playing"  // 游戏进行中
	RoomStatusFinished RoomStatus = "finished" // 上一局已结束，可再开
)
