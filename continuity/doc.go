// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 continuity 实现跨镜头的帧衔接引擎。

每个镜头生成后记录其激活版本的末帧（ffmpeg 提取，不可用时退化为
关键帧复制）；下一个镜头生成前按连续性模式解析条件帧：independent
只用自身关键帧，last-frame 以前序末帧做首帧，bridging 以自身关键帧
做首帧、前序末帧做目标尾帧。桥接模式依赖视频后端的双端条件能力，不具备时
自动降级为 last-frame；首个镜头没有前序末帧，一律退化为 independent。

末帧按镜头覆盖写入，回滚或重生成后重放记录即可，无需清理。
*/
package continuity
