package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"reelchat/internal/config"
	"reelchat/internal/models"
	"reelchat/internal/services"
	"reelchat/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin show-pair <userA> <userB>  - 显示两人之间的关系、请求与房间")
	fmt.Println("  ./admin list-friends <userID>      - 列出用户的好友")
	fmt.Println("  ./admin list-rooms <userID>        - 列出用户的私聊房间")
	fmt.Println("  ./admin show-room <roomID>         - 显示房间信息与前 20 条消息")
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("REELCHAT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	ctx := context.Background()
	ledger := services.NewFriendRequestService(db, nil)
	friendships := services.NewFriendshipService(db, nil)
	rooms := services.NewRoomService(db, nil)

	switch os.Args[1] {
	case "show-pair":
		if len(os.Args) < 4 {
			log.Fatalf("需要指定两个用户ID")
		}
		showPair(ctx, ledger, rooms, os.Args[2], os.Args[3])
	case "list-friends":
		listFriends(ctx, friendships, os.Args[2])
	case "list-rooms":
		listRooms(ctx, rooms, os.Args[2])
	case "show-room":
		showRoom(ctx, rooms, os.Args[2])
	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func showPair(ctx context.Context, ledger services.FriendRequestService, rooms services.RoomService, a, b string) {
	state, err := ledger.PairStatus(ctx, a, b)
	if err != nil {
		log.Fatalf("查询关系失败: %v", err)
	}
	fmt.Printf("%s -> %s: %s\n", a, b, state)

	outgoing, err := ledger.ListOutgoing(ctx, a)
	if err != nil {
		log.Fatalf("查询请求失败: %v", err)
	}
	for _, r := range outgoing {
		if r.ToID == b {
			fmt.Printf("待处理请求: %s (创建于 %s)\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	incoming, err := ledger.ListIncoming(ctx, a)
	if err != nil {
		log.Fatalf("查询请求失败: %v", err)
	}
	for _, r := range incoming {
		if r.FromID == b {
			fmt.Printf("待处理请求: %s (创建于 %s)\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	roomID, _ := models.DirectRoomID(a, b)
	room, err := rooms.GetRoomForUser(ctx, roomID, a)
	if err != nil {
		fmt.Printf("房间: 无 (%v)\n", err)
		return
	}
	fmt.Printf("房间: %s (创建于 %s)\n", room.ID, room.CreatedAt.Format("2006-01-02 15:04:05"))
}

func listFriends(ctx context.Context, friendships services.FriendshipService, userID string) {
	friends, err := friendships.ListFriends(ctx, userID)
	if err != nil {
		log.Fatalf("获取好友失败: %v", err)
	}
	fmt.Printf("用户 %s 的好友 (%d 人):\n", userID, len(friends))
	fmt.Println("--------------------------------------")
	for i, f := range friends {
		fmt.Printf("#%d ID: %s, 名称: %s, 成为好友: %s\n",
			i+1, f.FriendID, f.DisplayName, f.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func listRooms(ctx context.Context, rooms services.RoomService, userID string) {
	list, err := rooms.ListRooms(ctx, userID)
	if err != nil {
		log.Fatalf("获取房间失败: %v", err)
	}
	fmt.Printf("用户 %s 的房间 (%d 个):\n", userID, len(list))
	fmt.Println("--------------------------------------")
	for i, r := range list {
		fmt.Printf("#%d %s, 参与者: %v\n", i+1, r.ID, r.ParticipantIDs)
	}
}

func showRoom(ctx context.Context, rooms services.RoomService, roomID string) {
	room, err := rooms.GetRoom(ctx, roomID)
	if err != nil {
		log.Fatalf("获取房间失败: %v", err)
	}
	fmt.Printf("房间 %s 信息:\n", room.ID)
	fmt.Println("--------------------------------------")
	fmt.Printf("参与者: %v\n", room.ParticipantIDs)
	fmt.Printf("创建时间: %s\n", room.CreatedAt.Format("2006-01-02 15:04:05"))

	messages, err := rooms.ListMessages(ctx, room.ID, room.ParticipantIDs[0], 20, 0)
	if err != nil {
		fmt.Printf("获取消息失败: %v\n", err)
		return
	}
	fmt.Printf("前 %d 条消息:\n", len(messages))
	for _, m := range messages {
		body := m.Text
		if m.Reel != nil {
			body = "[reel] " + m.Reel.VideoURL
		}
		fmt.Printf("  %s %s: %s\n", m.CreatedAt.Format("15:04:05"), m.SenderName, body)
	}
}
