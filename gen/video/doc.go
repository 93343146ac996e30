// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 video 提供视频片段生成服务，适配 Veo 长任务接口（主，支持首帧+尾帧
双端条件）与 Runway image_to_video 任务接口（备，仅首帧条件）。

两家后端都是提交-轮询模型：poller 以固定间隔驱动有界状态机
（submitted → polling → succeeded/failed/timed_out），超出轮询预算按
处理错误对待并触发后端链降级——备后端收到的是全新请求，不续接已提交
的任务。主备双双耗尽时写入占位片段：本机有 ffmpeg 且首帧可用时循环
静帧成片，否则写入最小 MP4 桩文件。
*/
package video
